package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "ledger-service/internal/domain/user"
	apperrors "ledger-service/pkg/errors"
	"ledger-service/pkg/logger"
)

// TxFn runs inside a store transaction. It receives a Repository bound to that
// transaction; returning an error rolls the transaction back.
type TxFn func(ctx context.Context, tx Repository) error

// Repository defines the interface for user data access operations.
type Repository interface {
	Save(ctx context.Context, u *domain.User) (*domain.User, error)           // Insert or overwrite; assigns the id on insert
	FindByID(ctx context.Context, id int64) (domain.User, bool, error)        // Lookup by id; found is false when absent
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error) // Lookup by email; found is false when absent
	ExistsByEmail(ctx context.Context, email string) (bool, error)            // Whether any user holds email
	RunInTx(ctx context.Context, fn TxFn) error                               // Commit when fn succeeds, roll back otherwise
}

// Service implements registration, lookup and authentication of users.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	log    *zap.Logger
}

// New creates a new user account service.
func New(r Repository, h PasswordHasher, log *zap.Logger) *Service {
	return &Service{repo: r, hasher: h, log: log}
}

// Register stores a new user after checking that the email is free. The check and the
// insert share one transaction; a unique violation reported by the store is surfaced
// as the same business rule error as a failed check.
func (s *Service) Register(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	log := logger.WithContext(ctx, s.log)
	log.Info("registering user", zap.String("name", u.Name), zap.String("email", u.Email))

	hashed, err := s.hasher.Hash(u.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	toSave := *u
	toSave.Password = hashed

	var saved *domain.User
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := s.validateEmailUnique(ctx, tx, toSave.Email); err != nil {
			return err
		}

		var err error
		saved, err = tx.Save(ctx, &toSave)
		return err
	})
	if err != nil {
		var ruleErr *apperrors.BusinessRuleError
		switch {
		case errors.As(err, &ruleErr):
			log.Warn("email already registered", zap.String("email", u.Email))
			return nil, err
		case errors.Is(err, domain.ErrEmailTaken):
			log.Warn("email already registered, rejected by store", zap.String("email", u.Email))
			return nil, apperrors.NewBusinessRuleError(apperrors.MsgEmailTaken)
		}
		log.Error("failed to register user", zap.String("email", u.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info("user registered", zap.Int64("id", saved.ID))
	return saved, nil
}

// ValidateEmailUnique fails with a business rule error when email is already registered.
func (s *Service) ValidateEmailUnique(ctx context.Context, email string) error {
	return s.validateEmailUnique(ctx, s.repo, email)
}

func (s *Service) validateEmailUnique(ctx context.Context, r Repository, email string) error {
	exists, err := r.ExistsByEmail(ctx, email)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to validate email uniqueness: %w", err)
	}
	if exists {
		return apperrors.NewBusinessRuleError(apperrors.MsgEmailTaken)
	}
	return nil
}

// Authenticate returns the user registered under email when password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.WithContext(ctx, s.log)

	u, found, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		log.Error("failed to find user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if !found {
		log.Warn("authentication failed", zap.String("email", email), zap.String("reason", "unknown email"))
		return nil, apperrors.NewAuthenticationError(apperrors.MsgUserNotFound)
	}

	if err := s.hasher.Compare(u.Password, password); err != nil {
		log.Warn("authentication failed", zap.Int64("id", u.ID), zap.String("reason", "password mismatch"))
		return nil, apperrors.NewAuthenticationError(apperrors.MsgInvalidPassword)
	}

	log.Info("user authenticated", zap.Int64("id", u.ID))
	return &u, nil
}

// GetByID looks a user up by id. A missing user is reported through found.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.User, bool, error) {
	u, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return domain.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	return u, found, nil
}
