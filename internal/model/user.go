package model

// User represents a user node in the graph. The bcrypt hash stored on the
// node's `pwd` property never leaves the repository layer and is excluded
// from JSON serialization entirely.
//
// Fields:
//  ID           – opaque unique identifier, generated by the store on create.
//  Email        – globally unique email address.
//  Auth         – role name (ADMIN or CONTRIBUTOR; SELF is never persisted).
//  FirstName    – optional given name.
//  SecondName   – optional middle name.
//  LastName     – optional family name.
//  PasswordHash – bcrypt hash of the password (node property `pwd`).
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Auth         string `json:"auth"`
	FirstName    string `json:"firstName,omitempty"`
	SecondName   string `json:"secondName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	PasswordHash string `json:"-"`
}

// UserUpdates carries the optional fields of a user update. A nil pointer
// means "leave unchanged"; the repository only writes properties whose
// pointer is non-nil.
type UserUpdates struct {
	Email      *string
	Auth       *string
	FirstName  *string
	SecondName *string
	LastName   *string
	Password   *string
}

// Empty reports whether the update carries no fields at all.
func (u UserUpdates) Empty() bool {
	return u.Email == nil && u.Auth == nil && u.FirstName == nil &&
		u.SecondName == nil && u.LastName == nil && u.Password == nil
}
