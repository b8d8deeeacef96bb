package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/internal/domain/user"
	usecase "ledger-service/internal/usecase/user"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// UserRepoPG implements the user Repository interface using GORM.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection, or the open transaction
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

var _ usecase.Repository = (*UserRepoPG)(nil)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"` // Unique identifier with auto-increment
	Name      string    `gorm:"not null"`                 // User's display name
	Email     string    `gorm:"not null;unique"`          // User's unique email address
	Password  string    `gorm:"not null"`                 // bcrypt hash of the password
	CreatedAt time.Time `gorm:"<-:create"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func toUserSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Password: u.Password,
	}
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		Password: m.Password,
	}
}

// Save inserts u when it has no id yet and overwrites the stored row otherwise.
func (r *UserRepoPG) Save(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := toUserSchema(u)

	var err error
	if model.ID == 0 {
		err = r.db.WithContext(ctx).Create(&model).Error
	} else {
		err = r.db.WithContext(ctx).Save(&model).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("unique email violation", zap.String("email", u.Email))
			return nil, fmt.Errorf("failed to save user: %w", user.ErrEmailTaken)
		}
		r.log.Error("failed to save user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	r.log.Info("user saved in db", zap.Int64("id", model.ID))
	saved := model.toDomain()
	return &saved, nil
}

// FindByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) FindByID(ctx context.Context, id int64) (user.User, bool, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return user.User{}, false, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return user.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}

	return model.toDomain(), true, nil
}

// FindByEmail retrieves a user from the database by their email address.
func (r *UserRepoPG) FindByEmail(ctx context.Context, email string) (user.User, bool, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return user.User{}, false, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return user.User{}, false, fmt.Errorf("failed to get user by email: %w", err)
	}

	return model.toDomain(), true, nil
}

// ExistsByEmail reports whether a user with email is stored.
func (r *UserRepoPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("email = ?", email).Count(&count).Error; err != nil {
		r.log.Error("failed to count users by email", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// RunInTx runs fn inside a database transaction with a repository bound to it.
// The transaction commits when fn returns nil and rolls back on error or panic.
func (r *UserRepoPG) RunInTx(ctx context.Context, fn usecase.TxFn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &UserRepoPG{db: tx, log: r.log})
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	// sqlite reports constraint failures only through the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
