package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ledger-service/internal/adapter/cache"
	domain "ledger-service/internal/domain/entry"
	"ledger-service/internal/usecase/entry"
)

// EntryRepository wraps an entry store with a read-through cache for lookups by id.
// Searches always go to the store.
type EntryRepository struct {
	dbRepo entry.Repository
	cache  cache.Cache[domain.Entry]
	log    *zap.Logger
	group  singleflight.Group
}

var _ entry.Repository = (*EntryRepository)(nil)

// NewEntryRepository creates a cached entry repository. A nil cache disables caching.
func NewEntryRepository(dbRepo entry.Repository, c cache.Cache[domain.Entry], log *zap.Logger) *EntryRepository {
	return &EntryRepository{dbRepo: dbRepo, cache: c, log: log}
}

// Save writes through to the store and evicts the cached copy.
func (r *EntryRepository) Save(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	saved, err := r.dbRepo.Save(ctx, e)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, r.cache, r.log, saved.ID)
	return saved, nil
}

// Delete removes the entry from the store and evicts the cached copy.
func (r *EntryRepository) Delete(ctx context.Context, e *domain.Entry) error {
	if err := r.dbRepo.Delete(ctx, e); err != nil {
		return err
	}
	invalidate(ctx, r.cache, r.log, e.ID)
	return nil
}

// FindByID retrieves an entry using the cache-aside pattern.
func (r *EntryRepository) FindByID(ctx context.Context, id int64) (domain.Entry, bool, error) {
	return lookup(ctx, r.cache, &r.group, r.log, "entry", id, r.dbRepo.FindByID)
}

// FindAll delegates to the store.
func (r *EntryRepository) FindAll(ctx context.Context, c domain.Criteria) ([]domain.Entry, error) {
	return r.dbRepo.FindAll(ctx, c)
}
