package user

import "errors"

// User represents an account holder of the ledger.
type User struct {
	ID       int64  // ID is assigned by the store on first save; zero means not persisted
	Name     string // Name is the display name of the user
	Email    string // Email is unique across all persisted users
	Password string // Password holds the password hash once persisted
}

// IsPersisted reports whether the store has assigned an id to the user.
func (u *User) IsPersisted() bool {
	return u != nil && u.ID > 0
}

// ErrEmailTaken is returned by stores when a unique email constraint rejects a write.
var ErrEmailTaken = errors.New("email already registered")
