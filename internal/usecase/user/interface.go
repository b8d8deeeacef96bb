package user

import (
	"context"

	domain "ledger-service/internal/domain/user"
)

// Usecase defines the interface for user account operations.
type Usecase interface {
	Register(ctx context.Context, u *domain.User) (*domain.User, error)
	ValidateEmailUnique(ctx context.Context, email string) error
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, bool, error)
}

var _ Usecase = (*Service)(nil)

// PasswordHasher turns plaintext passwords into stored hashes and checks them back.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) error
}
