package services

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	ErrorInvalid     ErrorCode = "invalid"
	ErrorNotFound    ErrorCode = "not_found"
	ErrorUnavailable ErrorCode = "unavailable"
	ErrorRejected    ErrorCode = "rejected"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewUnavailableError(msg string) error {
	return &ServiceError{Code: ErrorUnavailable, Message: msg}
}

func NewRejectedError(msg string) error { return &ServiceError{Code: ErrorRejected, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsUnavailable reports whether err represents an unreachable or erroring
// gateway, the condition that triggers graceful degradation.
func IsUnavailable(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorUnavailable
}

// ValidationError blocks Next or Submit until the named required questions
// have non-empty answers. QuestionIDs is in catalog order.
type ValidationError struct {
	QuestionIDs []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required questions unanswered: %s", strings.Join(e.QuestionIDs, ", "))
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
