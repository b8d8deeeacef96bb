package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ledger-service/pkg/logger"
	"ledger-service/pkg/security"
)

// userIDKey holds the authenticated user id in the gin context.
const userIDKey = "auth.user_id"

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// Auth rejects requests without a valid bearer token and records the caller's id.
func Auth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Debug("token rejected", zap.Error(err))
			msg := "invalid token"
			if errors.Is(err, security.ErrExpiredToken) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Request = c.Request.WithContext(
			logger.WithUserID(c.Request.Context(), strconv.FormatInt(claims.UserID, 10)),
		)
		c.Next()
	}
}

// CurrentUserID returns the id stored by Auth.
func CurrentUserID(c *gin.Context) (int64, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := id.(int64)
	return userID, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="ledger"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthenticated",
		"message": msg,
	})
}
