package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "ledger-service/internal/domain/user"
	"ledger-service/internal/usecase/user"
	apperrors "ledger-service/pkg/errors"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, time.Time, error)
}

// UserHandler handles HTTP requests for user accounts
type UserHandler struct {
	uc     user.Usecase
	tokens TokenIssuer
	log    *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, tokens TokenIssuer, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		tokens: tokens,
		log:    log,
	}
}

// RegisterRequest represents the HTTP request body for registering a user
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthenticateRequest represents the HTTP request body for signing in
type AuthenticateRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents the HTTP response for user data. The password hash never leaves the service.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenResponse is returned by a successful authentication
type TokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Register handles POST /v1/users
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid register request", zap.Error(err))
		bindError(c, err)
		return
	}

	saved, err := h.uc.Register(c.Request.Context(), &domain.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(*saved))
}

// Authenticate handles POST /v1/users/authenticate
func (h *UserHandler) Authenticate(c *gin.Context) {
	var req AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid authenticate request", zap.Error(err))
		bindError(c, err)
		return
	}

	u, err := h.uc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	token, expires, err := h.tokens.Issue(u.ID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires,
		User:      toUserResponse(*u),
	})
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	u, found, err := h.uc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	if !found {
		handleError(c, h.log, apperrors.NewNotFoundError("user", apperrors.MsgUserIDNotFound))
		return
	}

	c.JSON(http.StatusOK, toUserResponse(u))
}
