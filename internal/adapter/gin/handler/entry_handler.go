package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/adapter/gin/middleware"
	domain "ledger-service/internal/domain/entry"
	"ledger-service/internal/domain/user"
	"ledger-service/internal/usecase/entry"
	apperrors "ledger-service/pkg/errors"
)

// UserLookup resolves the owner of an entry.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, bool, error)
}

// EntryHandler handles HTTP requests for ledger entries. Callers only see and
// change their own entries.
type EntryHandler struct {
	uc    entry.Usecase
	users UserLookup
	log   *zap.Logger
}

// NewEntryHandler creates a new EntryHandler instance
func NewEntryHandler(uc entry.Usecase, users UserLookup, log *zap.Logger) *EntryHandler {
	return &EntryHandler{uc: uc, users: users, log: log}
}

// EntryRequest is the body of create and update requests. Field rules are enforced
// by the entry service so clients get its messages.
type EntryRequest struct {
	Description string          `json:"description"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Value       decimal.Decimal `json:"value"`
	Type        string          `json:"type"`
	Status      string          `json:"status" binding:"omitempty,oneof=PENDING SETTLED CANCELED"`
	UserID      int64           `json:"user_id" binding:"omitempty,gt=0"`
}

// StatusRequest is the body of PUT /v1/entries/:id/status
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING SETTLED CANCELED"`
}

// SearchQuery holds the search filters. Empty parameters match everything.
type SearchQuery struct {
	Description string `form:"description"`
	Month       int    `form:"month"`
	Year        int    `form:"year"`
	Value       string `form:"value"`
	Type        string `form:"type"`
	Status      string `form:"status"`
	UserID      int64  `form:"user_id"`
}

// EntryResponse represents a ledger entry in HTTP responses
type EntryResponse struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Value       decimal.Decimal `json:"value"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	UserID      int64           `json:"user_id"`
}

func toEntryResponse(e domain.Entry) EntryResponse {
	return EntryResponse{
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

// Create handles POST /v1/entries
func (h *EntryHandler) Create(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	owner, err := h.owner(c, req.UserID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	saved, err := h.uc.Create(c.Request.Context(), &domain.Entry{
		Description: req.Description,
		Month:       req.Month,
		Year:        req.Year,
		Value:       req.Value,
		Type:        domain.Type(req.Type),
		Status:      domain.Status(req.Status),
		User:        owner,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toEntryResponse(*saved))
}

// Get handles GET /v1/entries/:id
func (h *EntryHandler) Get(c *gin.Context) {
	e, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toEntryResponse(e))
}

// Update handles PUT /v1/entries/:id. The body replaces every field except the
// owner; the status is kept when omitted.
func (h *EntryHandler) Update(c *gin.Context) {
	e, ok := h.load(c)
	if !ok {
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.UserID != 0 && req.UserID != e.UserID() {
		handleError(c, h.log, apperrors.NewForbiddenError(apperrors.MsgForbiddenEntry))
		return
	}

	e.Description = req.Description
	e.Month = req.Month
	e.Year = req.Year
	e.Value = req.Value
	e.Type = domain.Type(req.Type)
	if req.Status != "" {
		e.Status = domain.Status(req.Status)
	}

	saved, err := h.uc.Update(c.Request.Context(), &e)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toEntryResponse(*saved))
}

// UpdateStatus handles PUT /v1/entries/:id/status
func (h *EntryHandler) UpdateStatus(c *gin.Context) {
	e, ok := h.load(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	saved, err := h.uc.UpdateStatus(c.Request.Context(), &e, domain.Status(req.Status))
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toEntryResponse(*saved))
}

// Delete handles DELETE /v1/entries/:id
func (h *EntryHandler) Delete(c *gin.Context) {
	e, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.uc.Delete(c.Request.Context(), &e); err != nil {
		handleError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Search handles GET /v1/entries. user_id defaults to the caller.
func (h *EntryHandler) Search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	callerID, err := h.callerID(c, q.UserID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	filter := domain.Entry{
		Description: q.Description,
		Month:       q.Month,
		Year:        q.Year,
		Type:        domain.Type(q.Type),
		Status:      domain.Status(q.Status),
		User:        &user.User{ID: callerID},
	}
	if q.Value != "" {
		value, err := decimal.NewFromString(q.Value)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "value must be a decimal number"})
			return
		}
		filter.Value = value
	}

	entries, err := h.uc.Search(c.Request.Context(), filter)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// callerID returns the authenticated user's id, failing when requested names someone else.
func (h *EntryHandler) callerID(c *gin.Context, requested int64) (int64, error) {
	callerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return 0, apperrors.ErrUnauthorized
	}
	if requested != 0 && requested != callerID {
		return 0, apperrors.NewForbiddenError(apperrors.MsgForbiddenEntry)
	}
	return callerID, nil
}

// owner loads the user a new entry will belong to. A missing user is reported with
// the entry service's own message.
func (h *EntryHandler) owner(c *gin.Context, requested int64) (*user.User, error) {
	callerID, err := h.callerID(c, requested)
	if err != nil {
		return nil, err
	}

	u, found, err := h.users.GetByID(c.Request.Context(), callerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewValidationError("user", apperrors.MsgMissingUser)
	}
	return &u, nil
}

// load fetches the entry named by :id and checks that the caller owns it.
// It writes the error response itself and reports whether the handler may continue.
func (h *EntryHandler) load(c *gin.Context) (domain.Entry, bool) {
	id, ok := parseID(c)
	if !ok {
		return domain.Entry{}, false
	}

	e, found, err := h.uc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return domain.Entry{}, false
	}
	if !found {
		handleError(c, h.log, apperrors.NewNotFoundError("entry", apperrors.MsgEntryNotFound))
		return domain.Entry{}, false
	}

	if _, err := h.callerID(c, e.UserID()); err != nil {
		handleError(c, h.log, err)
		return domain.Entry{}, false
	}
	return e, true
}
