// Package errorutil is the single translation point from internal failures to
// the wire error shape {"error": string, "details"?: any}.
package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a failure for status mapping.
type Kind string

const (
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindForbidden        Kind = "FORBIDDEN"
	KindValidationFailed Kind = "VALIDATION_FAILED"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindUnexpected       Kind = "UNEXPECTED"
)

const (
	MessageUnauthorized = "Unauthorized"
	MessageForbidden    = "Forbidden"
	MessageNotFound     = "Resource not found"
	MessageConflict     = "Resource already exists"
	MessageInternal     = "Internal server error"
	MessageInvalidInput = "invalid input"
)

// Postgres SQLSTATEs with a client-side cause.
const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// APIError standardizes application errors.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Details any
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorBody is the JSON body written for every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// New builds an APIError from an explicit status. Statuses outside 400-599
// become 500.
func New(status int, message string, details any) *APIError {
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}
	return &APIError{Kind: kindForStatus(status), Status: status, Message: message, Details: details}
}

// NewUnauthorized reports a missing or invalid session. An empty message
// becomes MessageUnauthorized.
func NewUnauthorized(message string) error {
	if message == "" {
		message = MessageUnauthorized
	}
	return &APIError{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// NewForbidden reports an authenticated caller lacking permission. An empty
// message becomes MessageForbidden.
func NewForbidden(message string) error {
	if message == "" {
		message = MessageForbidden
	}
	return &APIError{Kind: KindForbidden, Status: http.StatusForbidden, Message: message}
}

// NewValidationError reports malformed input; details usually map fields to
// the rule they broke.
func NewValidationError(message string, details any) error {
	return &APIError{Kind: KindValidationFailed, Status: http.StatusBadRequest, Message: message, Details: details}
}

// NewNotFound reports "<resource> not found".
func NewNotFound(resource string) error {
	return &APIError{Kind: KindNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewConflict reports a state clash. An empty message becomes MessageConflict.
func NewConflict(message string, details any) error {
	if message == "" {
		message = MessageConflict
	}
	return &APIError{Kind: KindConflict, Status: http.StatusConflict, Message: message, Details: details}
}

// NewInternalError wraps err for logging; clients only see MessageInternal.
func NewInternalError(err error) error {
	return &APIError{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: MessageInternal, Err: err}
}

// ToAPIError classifies err. Unknown errors become Unexpected with the cause
// kept in Err for server-side logging.
func ToAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		out := New(fiberErr.Code, fiberErr.Message, nil)
		out.Err = err
		return out
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &APIError{Kind: KindNotFound, Status: http.StatusNotFound, Message: MessageNotFound, Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return &APIError{
				Kind:    KindConflict,
				Status:  http.StatusConflict,
				Message: MessageConflict,
				Details: conflictDetails(pgErr),
				Err:     err,
			}
		case invalidTextRepresentation:
			return &APIError{Kind: KindValidationFailed, Status: http.StatusBadRequest, Message: MessageInvalidInput, Err: err}
		}
	}
	return &APIError{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: MessageInternal, Err: err}
}

// MapError converts storage and framework errors into APIErrors so services
// can return them unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToAPIError(err)
}

// ToResponse returns the status and body for err. It has no side effects and
// never exposes the text of an Unexpected error.
func ToResponse(err error) (int, ErrorBody) {
	apiErr := ToAPIError(err)
	if apiErr == nil {
		apiErr = &APIError{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: MessageInternal}
	}
	if apiErr.Status >= http.StatusInternalServerError {
		return apiErr.Status, ErrorBody{Error: MessageInternal}
	}
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(apiErr.Status)
	}
	return apiErr.Status, ErrorBody{Error: message, Details: apiErr.Details}
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	apiErr := ToAPIError(err)
	return apiErr != nil && apiErr.Kind == kind
}

func conflictDetails(pgErr *pgconn.PgError) any {
	if pgErr.ConstraintName == "" {
		return nil
	}
	return map[string]any{"constraint": pgErr.ConstraintName}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	}
	if status >= http.StatusInternalServerError {
		return KindUnexpected
	}
	return KindValidationFailed
}
