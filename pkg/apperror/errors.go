package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ValidationError is returned for missing or malformed request fields
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError is returned when a read requires a record that does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// TransientBackendError marks a failure worth retrying (network, 5xx, rate limit)
type TransientBackendError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *TransientBackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s temporarily unavailable (status %d): %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s temporarily unavailable: %v", e.Backend, e.Err)
}

func (e *TransientBackendError) Unwrap() error {
	return e.Err
}

// Cause classifies a persistent backend failure
type Cause string

const (
	CauseAuth      Cause = "auth"
	CauseQuota     Cause = "quota"
	CauseBadInput  Cause = "bad_request"
	CauseMalformed Cause = "malformed_response"
	CauseExhausted Cause = "unavailable"
	CauseUnknown   Cause = "unknown"
)

// PersistentBackendError marks a failure that must not be retried
type PersistentBackendError struct {
	Backend    string
	Cause      Cause
	StatusCode int
	Err        error
}

func (e *PersistentBackendError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Backend, e.Cause, e.Err)
}

func (e *PersistentBackendError) Unwrap() error {
	return e.Err
}

// ErrVersionConflict is returned by conditional writes when the stored version moved
var ErrVersionConflict = errors.New("version conflict")

// NewValidation builds a ValidationError
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFound builds a NotFoundError
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// FromStatus classifies an HTTP failure from a backend
func FromStatus(backend string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return &TransientBackendError{Backend: backend, StatusCode: status, Err: err}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return &PersistentBackendError{Backend: backend, Cause: CauseAuth, StatusCode: status, Err: err}
	case status == http.StatusPaymentRequired:
		return &PersistentBackendError{Backend: backend, Cause: CauseQuota, StatusCode: status, Err: err}
	case status >= 400:
		return &PersistentBackendError{Backend: backend, Cause: CauseBadInput, StatusCode: status, Err: err}
	}
	return &PersistentBackendError{Backend: backend, Cause: CauseUnknown, StatusCode: status, Err: err}
}

// FromTransport classifies an error raised before any response arrived
func FromTransport(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &TransientBackendError{Backend: backend, Err: err}
	}
	return &PersistentBackendError{Backend: backend, Cause: CauseUnknown, Err: err}
}

// Malformed marks an unparseable backend body
func Malformed(backend string, err error) error {
	return &PersistentBackendError{Backend: backend, Cause: CauseMalformed, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsTransient(err error) bool {
	var t *TransientBackendError
	return errors.As(err, &t)
}

func IsPersistent(err error) bool {
	var p *PersistentBackendError
	return errors.As(err, &p)
}

// HTTPStatus maps an error to the status code surfaced to API callers
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsTransient(err):
		return http.StatusServiceUnavailable
	case IsPersistent(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// PublicMessage returns a caller-safe description; backend causes are classified, not echoed
func PublicMessage(err error) string {
	var p *PersistentBackendError
	if errors.As(err, &p) {
		return fmt.Sprintf("model backend rejected the request (%s)", p.Cause)
	}
	var t *TransientBackendError
	if errors.As(err, &t) {
		return "model backend is temporarily unavailable, please retry"
	}
	if IsValidation(err) || IsNotFound(err) {
		return err.Error()
	}
	return "internal server error"
}
