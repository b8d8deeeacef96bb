package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Fixed messages shared with existing clients.
const (
	MsgInvalidDescription = "Informe uma Descrição válida."
	MsgInvalidMonth       = "Informe um Mês válido."
	MsgInvalidYear        = "Informe um Ano válido."
	MsgMissingUser        = "Informe um Usuário."
	MsgInvalidValue       = "Informe um Valor válido."
	MsgMissingType        = "Informe um tipo de lançamento."
	MsgUserNotFound       = "Usuário não encontrado para o email informado."
	MsgInvalidPassword    = "Senha inválida."
	MsgEmailTaken         = "Já existe um usuário cadastrado com esse email."
	MsgEntryNotPersisted  = "entry not yet persisted"
	MsgEntryNotFound      = "entry not found"
	MsgUserIDNotFound     = "user not found"
	MsgForbiddenEntry     = "entry belongs to another user"
	MsgInvalidStatus      = "status must be one of PENDING SETTLED CANCELED"
)

// Common application errors
var (
	ErrNotFound     = NewNotFoundError("resource", "resource not found")
	ErrInternal     = NewInternalError("internal server error", nil)
	ErrUnauthorized = NewAuthenticationError("unauthorized")
)

// ValidationError is raised when a ledger entry breaks one of its field rules.
// Message is one of the fixed Msg* strings and is returned verbatim by Error.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Message)
}

// PreconditionError signals caller misuse, such as updating an entry that was never saved.
type PreconditionError struct {
	Message string
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(message string) *PreconditionError {
	return &PreconditionError{Message: message}
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return e.Message
}

// GRPCStatus returns the gRPC status for this error
func (e *PreconditionError) GRPCStatus() *status.Status {
	return status.New(codes.FailedPrecondition, e.Message)
}

// AuthenticationError is raised on a failed login.
type AuthenticationError struct {
	Message string
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	return e.Message
}

// GRPCStatus returns the gRPC status for this error
func (e *AuthenticationError) GRPCStatus() *status.Status {
	return status.New(codes.Unauthenticated, e.Message)
}

// BusinessRuleError is raised when a request conflicts with existing data,
// e.g. registering an email that is already taken.
type BusinessRuleError struct {
	Message string
}

// NewBusinessRuleError creates a new business rule error
func NewBusinessRuleError(message string) *BusinessRuleError {
	return &BusinessRuleError{Message: message}
}

// Error implements the error interface
func (e *BusinessRuleError) Error() string {
	return e.Message
}

// GRPCStatus returns the gRPC status for this error
func (e *BusinessRuleError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Message)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// GRPCStatus returns the gRPC status for this error
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// ForbiddenError is returned when the caller may not touch another user's data.
type ForbiddenError struct {
	Message string
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// Error implements the error interface
func (e *ForbiddenError) Error() string {
	return e.Message
}

// GRPCStatus returns the gRPC status for this error
func (e *ForbiddenError) GRPCStatus() *status.Status {
	return status.New(codes.PermissionDenied, e.Message)
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// GRPCStatus returns the gRPC status for this error
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

// GRPCStatuser interface for errors that can provide gRPC status
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}

// Code returns the gRPC code carried by err, or codes.Unknown for errors
// that do not expose a status. Wrapped errors are unwrapped first.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var s GRPCStatuser
	if As(err, &s) {
		return s.GRPCStatus().Code()
	}
	return codes.Unknown
}

// As is errors.As from the standard library, re-exported so callers importing
// this package under its default name keep access to it.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
