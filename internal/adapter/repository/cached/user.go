package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ledger-service/internal/adapter/cache"
	domain "ledger-service/internal/domain/user"
	"ledger-service/internal/usecase/user"
)

// UserProfile is the cached form of a user. The password hash is never cached.
type UserProfile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toProfile(u domain.User) UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (p UserProfile) toDomain() domain.User {
	return domain.User{ID: p.ID, Name: p.Name, Email: p.Email}
}

// UserRepository wraps a user store with a read-through cache for lookups by id.
// Lookups by id never carry the password hash; authentication goes through FindByEmail.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.Cache[UserProfile]
	log    *zap.Logger
	group  singleflight.Group
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a cached user repository. A nil cache disables caching.
func NewUserRepository(dbRepo user.Repository, c cache.Cache[UserProfile], log *zap.Logger) *UserRepository {
	return &UserRepository{dbRepo: dbRepo, cache: c, log: log}
}

// Save writes through to the store and evicts the cached copy.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	saved, err := r.dbRepo.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, r.cache, r.log, saved.ID)
	return saved, nil
}

// FindByID retrieves a user using the cache-aside pattern.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (domain.User, bool, error) {
	p, found, err := lookup(ctx, r.cache, &r.group, r.log, "user", id, r.loadProfile)
	if err != nil || !found {
		return domain.User{}, found, err
	}
	return p.toDomain(), true, nil
}

func (r *UserRepository) loadProfile(ctx context.Context, id int64) (UserProfile, bool, error) {
	u, found, err := r.dbRepo.FindByID(ctx, id)
	if err != nil || !found {
		return UserProfile{}, found, err
	}
	return toProfile(u), true, nil
}

// FindByEmail delegates to the store.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return r.dbRepo.FindByEmail(ctx, email)
}

// ExistsByEmail delegates to the store.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.dbRepo.ExistsByEmail(ctx, email)
}

// RunInTx runs fn in a store transaction. Writes made through the transactional
// repository still evict the cache.
func (r *UserRepository) RunInTx(ctx context.Context, fn user.TxFn) error {
	return r.dbRepo.RunInTx(ctx, func(ctx context.Context, tx user.Repository) error {
		return fn(ctx, &UserRepository{dbRepo: tx, cache: r.cache, log: r.log})
	})
}
