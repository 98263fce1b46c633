package utils

import "unicode"

// Password strength rule identifiers, reported inside the field-error body
// so clients can highlight the exact rule that failed.
const (
	RuleMin       = "min"       // at least 6 characters
	RuleMax       = "max"       // at most 100 characters
	RuleUppercase = "uppercase" // at least one upper-case letter
	RuleLowercase = "lowercase" // at least one lower-case letter
	RuleDigits    = "digits"    // at least one digit
	RuleSpaces    = "spaces"    // no whitespace
)

// ValidatePassword checks a candidate password against the strength policy
// and returns the identifiers of every violated rule. An empty slice means
// the password is acceptable.
func ValidatePassword(password string) []string {
	var failed []string

	runes := []rune(password)
	if len(runes) < 6 {
		failed = append(failed, RuleMin)
	}
	if len(runes) > 100 {
		failed = append(failed, RuleMax)
	}

	var upper, lower, digit, space bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			space = true
		}
	}
	if !upper {
		failed = append(failed, RuleUppercase)
	}
	if !lower {
		failed = append(failed, RuleLowercase)
	}
	if !digit {
		failed = append(failed, RuleDigits)
	}
	if space {
		failed = append(failed, RuleSpaces)
	}
	return failed
}
