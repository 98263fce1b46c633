package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes plain with the given work factor. The cost
// arrives from configuration (BCRYPT_COST) so deployments can raise the
// factor without a rebuild; stored hashes embed their own cost, so mixed
// costs verify fine.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash. The
// comparison is constant-time inside bcrypt.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
