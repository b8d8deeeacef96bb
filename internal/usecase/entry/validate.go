package entry

import (
	"strings"

	domain "ledger-service/internal/domain/entry"
	apperrors "ledger-service/pkg/errors"

	"github.com/shopspring/decimal"
)

const (
	minMonth = 1
	maxMonth = 12
	minYear  = 1
	maxYear  = 9999 // at most four decimal digits
)

// Validate checks a candidate entry against the ledger rules. Rules are applied in a
// fixed order and the first violation is returned as a *errors.ValidationError, so the
// message a client sees does not depend on how many fields are wrong.
// Validate has no side effects and is safe for concurrent use.
func Validate(e *domain.Entry) error {
	if e == nil || strings.TrimSpace(e.Description) == "" {
		return apperrors.NewValidationError("description", apperrors.MsgInvalidDescription)
	}

	if e.Month < minMonth || e.Month > maxMonth {
		return apperrors.NewValidationError("month", apperrors.MsgInvalidMonth)
	}

	if e.Year < minYear || e.Year > maxYear {
		return apperrors.NewValidationError("year", apperrors.MsgInvalidYear)
	}

	// an unsaved user counts as no user
	if !e.User.IsPersisted() {
		return apperrors.NewValidationError("user", apperrors.MsgMissingUser)
	}

	if e.Value.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError("value", apperrors.MsgInvalidValue)
	}

	if !e.Type.Valid() {
		return apperrors.NewValidationError("type", apperrors.MsgMissingType)
	}

	return nil
}
