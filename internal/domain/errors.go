package domain

import (
	"errors"
	"fmt"
	"time"
)

// ServiceError represents a standardized error response
type ServiceError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeDataSourceError = "DATA_SOURCE_ERROR"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeInternalServer  = "INTERNAL_SERVER_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
)

// Sentinel errors surfaced by the lookup and report pipeline
var (
	// ErrNotFound is returned when no record matches every provided filter.
	ErrNotFound = errors.New("record not found")
	// ErrEmptyDataSource is returned when the backing data source yields zero rows.
	ErrEmptyDataSource = errors.New("data source returned no rows")
	// ErrInvalidYear is returned for a checkup year outside the configured window.
	ErrInvalidYear = errors.New("invalid checkup year")
	// ErrDataSourceUnavailable is returned when the record set cannot be fetched.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
)

// NotFoundMessage is the user-facing text shown when a search matches nothing.
const NotFoundMessage = "ไม่พบข้อมูล กรุณาตรวจสอบอีกครั้ง"

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewServiceError creates a new ServiceError with timestamp
func NewServiceError(code, message, details, requestID string) *ServiceError {
	return &ServiceError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsUserError reports whether err stems from caller input rather than a system failure.
func IsUserError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidYear) || errors.As(err, &ve)
}
