package entry

import (
	"context"

	domain "ledger-service/internal/domain/entry"
)

// Usecase defines the ledger entry operations exposed to transports.
type Usecase interface {
	Create(ctx context.Context, e *domain.Entry) (*domain.Entry, error)
	Update(ctx context.Context, e *domain.Entry) (*domain.Entry, error)
	Delete(ctx context.Context, e *domain.Entry) error
	Search(ctx context.Context, filter domain.Entry) ([]domain.Entry, error)
	UpdateStatus(ctx context.Context, e *domain.Entry, status domain.Status) (*domain.Entry, error)
	GetByID(ctx context.Context, id int64) (domain.Entry, bool, error)
}

var _ Usecase = (*Service)(nil)
