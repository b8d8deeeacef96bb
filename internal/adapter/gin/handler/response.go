package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	apperrors "ledger-service/pkg/errors"
	"ledger-service/pkg/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// handleError converts service errors to HTTP responses. Classified errors keep
// their message; anything else is logged and reported as an internal error.
func handleError(c *gin.Context, log *zap.Logger, err error) {
	var (
		httpStatus int
		kind       string
	)
	switch apperrors.Code(err) {
	case codes.InvalidArgument:
		httpStatus, kind = http.StatusBadRequest, "invalid_input"
	case codes.FailedPrecondition:
		httpStatus, kind = http.StatusPreconditionFailed, "precondition_failed"
	case codes.Unauthenticated:
		httpStatus, kind = http.StatusUnauthorized, "unauthenticated"
	case codes.PermissionDenied:
		httpStatus, kind = http.StatusForbidden, "forbidden"
	case codes.AlreadyExists:
		httpStatus, kind = http.StatusConflict, "already_exists"
	case codes.NotFound:
		httpStatus, kind = http.StatusNotFound, "not_found"
	default:
		logger.WithContext(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	c.JSON(httpStatus, ErrorResponse{Error: kind, Message: errorMessage(err)})
}

// errorMessage returns the message of the classified error inside err, without
// the context added by wrapping.
func errorMessage(err error) string {
	var s apperrors.GRPCStatuser
	if apperrors.As(err, &s) {
		return s.GRPCStatus().Message()
	}
	return err.Error()
}

// bindError answers 400 for a request body or query that failed to bind.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: describeBindError(err),
	})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must have %s length %s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "ID must be a positive number",
		})
		return 0, false
	}
	return id, true
}
