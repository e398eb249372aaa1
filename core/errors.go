package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	StudioErrorValidation   = "STUDIO_VALIDATION"
	StudioErrorNotFound     = "STUDIO_NOT_FOUND"
	StudioErrorUnauthorized = "STUDIO_UNAUTHORIZED"
	StudioErrorDispatch     = "STUDIO_DISPATCH_FAILED"
	StudioErrorPersistence  = "STUDIO_PERSISTENCE"
	StudioErrorInternal     = "STUDIO_INTERNAL_ERROR"
)

// ValidationError marks missing or out-of-range input; surfaced as 400.
func ValidationError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(StudioErrorValidation)
}

// NotFoundError marks an unknown record id; surfaced as 404.
func NotFoundError(message string) error {
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(StudioErrorNotFound)
}

// UnauthorizedError marks a rejected inbound webhook; surfaced as 401.
func UnauthorizedError(message string) error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(StudioErrorUnauthorized)
}

// PersistenceError wraps a store read/write failure; surfaced as 500.
func PersistenceError(message string, cause error) error {
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryOperation).
			WithCode(http.StatusInternalServerError).
			WithTextCode(StudioErrorPersistence)
	}
	return goerrors.Wrap(cause, goerrors.CategoryOperation, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(StudioErrorPersistence)
}

// InternalError marks a server-side misconfiguration; surfaced as 500.
func InternalError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(StudioErrorInternal)
}

// DispatchError wraps a webhook delivery failure. It is logged by the
// emitting side and never surfaced to the HTTP caller.
func DispatchError(message string, cause error) error {
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryExternal).
			WithTextCode(StudioErrorDispatch)
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithTextCode(StudioErrorDispatch)
}

// IsValidation reports whether err carries the validation text code.
func IsValidation(err error) bool {
	return hasTextCode(err, StudioErrorValidation)
}

// IsNotFound reports whether err carries the not-found text code.
func IsNotFound(err error) bool {
	return hasTextCode(err, StudioErrorNotFound)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// MapError normalizes any error into a goerrors envelope with an HTTP
// status code, so the transport layer can render it without inspecting
// package internals.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return ensureEnvelope(goerrors.Wrap(err, goerrors.CategoryNotFound, err.Error()))
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return ensureEnvelope(goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureEnvelope(mapped)
}

func ensureEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return StudioErrorValidation
	case goerrors.CategoryNotFound:
		return StudioErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return StudioErrorUnauthorized
	case goerrors.CategoryExternal:
		return StudioErrorDispatch
	case goerrors.CategoryOperation:
		return StudioErrorPersistence
	default:
		return StudioErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
