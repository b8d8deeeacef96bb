package entry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "ledger-service/internal/domain/entry"
	apperrors "ledger-service/pkg/errors"
	"ledger-service/pkg/logger"
)

// Repository defines the persistence operations the ledger entry service relies on.
// Implementations own transactions, id assignment and result ordering.
type Repository interface {
	Save(ctx context.Context, e *domain.Entry) (*domain.Entry, error)       // Insert when e.ID is zero, overwrite otherwise
	Delete(ctx context.Context, e *domain.Entry) error                      // Remove by e.ID
	FindByID(ctx context.Context, id int64) (domain.Entry, bool, error)     // Lookup by id; found is false when absent
	FindAll(ctx context.Context, c domain.Criteria) ([]domain.Entry, error) // Entries matching every criterion
}

// Service implements the ledger entry lifecycle on top of a Repository.
type Service struct {
	repo      Repository
	publisher Publisher // optional, nil disables notifications
	log       *zap.Logger
}

// New creates a ledger entry service. A nil publisher disables change notifications.
func New(r Repository, p Publisher, log *zap.Logger) *Service {
	return &Service{repo: r, publisher: p, log: log}
}

// Create validates e and persists it. The store assigns the id and the PENDING status
// when none was set. The store is never called for an invalid entry or status.
func (uc *Service) Create(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating entry", entryFields(e)...)

	if err := Validate(e); err != nil {
		log.Warn("entry validation failed", zap.Error(err))
		return nil, err
	}
	if e.Status != "" && !e.Status.Valid() {
		log.Warn("entry validation failed", zap.String("status", string(e.Status)))
		return nil, apperrors.NewValidationError("status", apperrors.MsgInvalidStatus)
	}

	saved, err := uc.repo.Save(ctx, e)
	if err != nil {
		log.Error("failed to create entry", zap.Error(err))
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	uc.publish(ctx, newEvent(EventCreated, saved))
	return saved, nil
}

// Update validates and overwrites an already persisted entry.
func (uc *Service) Update(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	return uc.update(ctx, e, EventUpdated)
}

// UpdateStatus sets the entry status and saves it through Update, so the entry must
// already be persisted and valid. Any known status may follow any other.
func (uc *Service) UpdateStatus(ctx context.Context, e *domain.Entry, status domain.Status) (*domain.Entry, error) {
	if e == nil {
		return nil, apperrors.NewPreconditionError(apperrors.MsgEntryNotPersisted)
	}
	if !status.Valid() {
		logger.WithContext(ctx, uc.log).Warn("status change rejected",
			zap.Int64("id", e.ID), zap.String("to", string(status)))
		return nil, apperrors.NewValidationError("status", apperrors.MsgInvalidStatus)
	}

	logger.WithContext(ctx, uc.log).Info("updating entry status",
		zap.Int64("id", e.ID),
		zap.String("from", string(e.Status)),
		zap.String("to", string(status)),
	)

	e.Status = status
	return uc.update(ctx, e, EventStatusChanged)
}

func (uc *Service) update(ctx context.Context, e *domain.Entry, evType EventType) (*domain.Entry, error) {
	log := logger.WithContext(ctx, uc.log)

	if e == nil || e.ID == 0 {
		log.Warn("update rejected", zap.String("reason", apperrors.MsgEntryNotPersisted))
		return nil, apperrors.NewPreconditionError(apperrors.MsgEntryNotPersisted)
	}

	log.Info("updating entry", entryFields(e)...)

	if err := Validate(e); err != nil {
		log.Warn("entry validation failed", zap.Int64("id", e.ID), zap.Error(err))
		return nil, err
	}
	if err := uc.resolveStatus(ctx, e); err != nil {
		return nil, err
	}

	saved, err := uc.repo.Save(ctx, e)
	if err != nil {
		log.Error("failed to update entry", zap.Int64("id", e.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	uc.publish(ctx, newEvent(evType, saved))
	return saved, nil
}

// resolveStatus rejects unknown statuses and fills an empty one from the stored row,
// falling back to PENDING when the row is gone.
func (uc *Service) resolveStatus(ctx context.Context, e *domain.Entry) error {
	log := logger.WithContext(ctx, uc.log)

	if e.Status != "" {
		if !e.Status.Valid() {
			log.Warn("entry validation failed", zap.Int64("id", e.ID), zap.String("status", string(e.Status)))
			return apperrors.NewValidationError("status", apperrors.MsgInvalidStatus)
		}
		return nil
	}

	stored, found, err := uc.repo.FindByID(ctx, e.ID)
	if err != nil {
		log.Error("failed to load stored status", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if found && stored.Status.Valid() {
		e.Status = stored.Status
	} else {
		e.Status = domain.StatusPending
	}
	return nil
}

// Delete removes a persisted entry. Existence is not re-checked; deleting an id the
// store no longer holds is left to the store.
func (uc *Service) Delete(ctx context.Context, e *domain.Entry) error {
	log := logger.WithContext(ctx, uc.log)

	if e == nil || e.ID == 0 {
		log.Warn("delete rejected", zap.String("reason", apperrors.MsgEntryNotPersisted))
		return apperrors.NewPreconditionError(apperrors.MsgEntryNotPersisted)
	}

	log.Info("deleting entry", zap.Int64("id", e.ID))

	if err := uc.repo.Delete(ctx, e); err != nil {
		log.Error("failed to delete entry", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	uc.publish(ctx, newEvent(EventDeleted, e))
	return nil
}

// Search returns the entries whose fields equal every non-zero field of filter,
// in the order the store returns them.
func (uc *Service) Search(ctx context.Context, filter domain.Entry) ([]domain.Entry, error) {
	log := logger.WithContext(ctx, uc.log)
	criteria := domain.CriteriaFrom(filter)

	log.Info("searching entries", zap.Int("criteria", len(criteria)))

	entries, err := uc.repo.FindAll(ctx, criteria)
	if err != nil {
		log.Error("failed to search entries", zap.Error(err))
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}

	return entries, nil
}

// GetByID looks an entry up by id. A missing entry is reported through found, not as an error.
func (uc *Service) GetByID(ctx context.Context, id int64) (domain.Entry, bool, error) {
	e, found, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to get entry", zap.Int64("id", id), zap.Error(err))
		return domain.Entry{}, false, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, found, nil
}

// publish emits ev when a publisher is configured. Failures are logged only:
// the write that produced the event has already been committed.
func (uc *Service) publish(ctx context.Context, ev Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		logger.WithContext(ctx, uc.log).Warn("failed to publish entry event",
			zap.String("type", string(ev.Type)),
			zap.Int64("entry_id", ev.EntryID),
			zap.Error(err),
		)
	}
}

func entryFields(e *domain.Entry) []zap.Field {
	if e == nil {
		return nil
	}
	return []zap.Field{
		zap.Int64("id", e.ID),
		zap.String("description", e.Description),
		zap.Int("month", e.Month),
		zap.Int("year", e.Year),
		zap.String("value", e.Value.String()),
		zap.String("type", string(e.Type)),
		zap.Int64("user_id", e.UserID()),
	}
}
