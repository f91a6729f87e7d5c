// pkg/apperr/errors.go

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError carries field-level messages for malformed input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

type AuthenticationError struct{ Reason string }

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return "user not authenticated"
	}
	return e.Reason
}

type ForbiddenError struct{ Reason string }

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	r := e.Resource
	if r == "" {
		r = "resource"
	}
	if e.ID == "" {
		return r + " not found"
	}
	return fmt.Sprintf("%s %q not found", r, e.ID)
}

// GenerationServiceError means the external model call failed outright.
type GenerationServiceError struct {
	Op  string
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

// SchemaValidationError points at the first offending field of generated output.
type SchemaValidationError struct {
	Path   string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	if e.Path == "" {
		return "invalid quiz: " + e.Reason
	}
	return fmt.Sprintf("invalid quiz at %s: %s", e.Path, e.Reason)
}

type QuizParseError struct {
	Reason string
	Err    error
}

func (e *QuizParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse quiz: %s: %v", e.Reason, e.Err)
	}
	return "could not parse quiz: " + e.Reason
}

func (e *QuizParseError) Unwrap() error { return e.Err }

type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding: %s: %v", e.Reason, e.Err)
	}
	return "embedding: " + e.Reason
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// PersistenceError wraps store failures. Its text never reaches the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Status maps an error to its HTTP status code.
func Status(err error) int {
	var (
		ve  *ValidationError
		ae  *AuthenticationError
		fe  *ForbiddenError
		nfe *NotFoundError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &fe):
		return http.StatusForbidden
	case errors.As(err, &nfe):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to the caller.
func PublicMessage(err error) string {
	var (
		ge *GenerationServiceError
		se *SchemaValidationError
		qe *QuizParseError
		pe *PersistenceError
		ee *EmbeddingError
	)
	switch {
	case errors.As(err, &pe):
		return "internal server error"
	case errors.As(err, &se), errors.As(err, &qe), errors.As(err, &ge), errors.As(err, &ee):
		return err.Error()
	case Status(err) != http.StatusInternalServerError:
		return err.Error()
	default:
		return "internal server error"
	}
}
