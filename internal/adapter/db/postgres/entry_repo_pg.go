package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/internal/domain/entry"
	"ledger-service/internal/domain/user"
	usecase "ledger-service/internal/usecase/entry"
)

// EntryRepoPG implements the entry Repository interface using GORM.
type EntryRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEntryRepoPG creates a new instance of EntryRepoPG.
func NewEntryRepoPG(db *gorm.DB, log *zap.Logger) *EntryRepoPG {
	return &EntryRepoPG{db: db, log: log}
}

var _ usecase.Repository = (*EntryRepoPG)(nil)

// EntrySchema represents the database schema for the ledger_entries table.
type EntrySchema struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Description string          `gorm:"not null"`
	Month       int             `gorm:"not null"`
	Year        int             `gorm:"not null"`
	Value       decimal.Decimal `gorm:"type:numeric;not null"`
	Type        string          `gorm:"size:16;not null"`
	Status      string          `gorm:"size:16;not null"`
	UserID      int64           `gorm:"not null;index"`
	CreatedAt   time.Time       `gorm:"<-:create"`
	UpdatedAt   time.Time
}

// TableName specifies the table name for the EntrySchema model.
func (EntrySchema) TableName() string {
	return "ledger_entries"
}

// BeforeCreate stores new entries as pending unless a status was given.
func (m *EntrySchema) BeforeCreate(*gorm.DB) error {
	if m.Status == "" {
		m.Status = string(entry.StatusPending)
	}
	return nil
}

func toEntrySchema(e *entry.Entry) EntrySchema {
	return EntrySchema{
		ID:          e.ID,
		Description: e.Description,
		Month:       e.Month,
		Year:        e.Year,
		Value:       e.Value,
		Type:        string(e.Type),
		Status:      string(e.Status),
		UserID:      e.UserID(),
	}
}

// toDomain maps the row back. Only the user id is known at this layer.
func (m EntrySchema) toDomain() entry.Entry {
	return entry.Entry{
		ID:          m.ID,
		Description: m.Description,
		Month:       m.Month,
		Year:        m.Year,
		Value:       m.Value,
		Type:        entry.Type(m.Type),
		Status:      entry.Status(m.Status),
		User:        &user.User{ID: m.UserID},
	}
}

// columns maps criteria fields onto ledger_entries columns.
var columns = map[entry.Field]string{
	entry.FieldID:          "id",
	entry.FieldDescription: "description",
	entry.FieldMonth:       "month",
	entry.FieldYear:        "year",
	entry.FieldValue:       "value",
	entry.FieldType:        "type",
	entry.FieldStatus:      "status",
	entry.FieldUserID:      "user_id",
}

// Save inserts e when it has no id yet and overwrites the stored row otherwise.
func (r *EntryRepoPG) Save(ctx context.Context, e *entry.Entry) (*entry.Entry, error) {
	if e == nil {
		return nil, errors.New("entry cannot be nil")
	}

	model := toEntrySchema(e)

	var err error
	if model.ID == 0 {
		err = r.db.WithContext(ctx).Create(&model).Error
	} else {
		err = r.db.WithContext(ctx).Save(&model).Error
	}
	if err != nil {
		r.log.Error("failed to save entry in db", zap.Error(err), zap.Int64("id", e.ID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	r.log.Info("entry saved in db", zap.Int64("id", model.ID), zap.String("status", model.Status))
	saved := model.toDomain()
	// keep the caller's user so name and email survive the round trip
	if e.User != nil {
		u := *e.User
		saved.User = &u
	}
	return &saved, nil
}

// Delete removes the row for e. Deleting a row that no longer exists is not an error.
func (r *EntryRepoPG) Delete(ctx context.Context, e *entry.Entry) error {
	if e == nil {
		return errors.New("entry cannot be nil")
	}

	result := r.db.WithContext(ctx).Delete(&EntrySchema{}, e.ID)
	if result.Error != nil {
		r.log.Error("failed to delete entry from db", zap.Error(result.Error), zap.Int64("id", e.ID))
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}

	r.log.Info("entry deleted from db", zap.Int64("id", e.ID), zap.Int64("rows", result.RowsAffected))
	return nil
}

// FindByID retrieves an entry by id. found is false when no row matches.
func (r *EntryRepoPG) FindByID(ctx context.Context, id int64) (entry.Entry, bool, error) {
	var model EntrySchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("entry not found", zap.Int64("id", id))
			return entry.Entry{}, false, nil
		}
		r.log.Error("failed to get entry from db", zap.Error(err), zap.Int64("id", id))
		return entry.Entry{}, false, fmt.Errorf("failed to get entry: %w", err)
	}

	return model.toDomain(), true, nil
}

// FindAll returns every entry matching all of c, ordered by id.
// Values are always bound as parameters; column names come from a fixed map.
func (r *EntryRepoPG) FindAll(ctx context.Context, c entry.Criteria) ([]entry.Entry, error) {
	q := r.db.WithContext(ctx).Model(&EntrySchema{})
	for _, crit := range c {
		column, ok := columns[crit.Field]
		if !ok {
			return nil, fmt.Errorf("unknown search field %q", crit.Field)
		}
		q = q.Where(column+" = ?", bindValue(crit.Value))
	}

	var models []EntrySchema
	if err := q.Order("id ASC").Find(&models).Error; err != nil {
		r.log.Error("failed to search entries in db", zap.Error(err), zap.Int("criteria", len(c)))
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}

	entries := make([]entry.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, m.toDomain())
	}
	return entries, nil
}

func bindValue(v any) any {
	switch val := v.(type) {
	case entry.Type:
		return string(val)
	case entry.Status:
		return string(val)
	default:
		return v
	}
}
