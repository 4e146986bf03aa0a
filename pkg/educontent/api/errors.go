package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/auth"
)

// Error kinds rendered to clients.
const (
	KindValidation       = "validation_error"
	KindFileTooLarge     = "file_too_large"
	KindUnsupportedMedia = "unsupported_media_type"
	KindUnauthorized     = "unauthorized"
	KindForbidden        = "forbidden"
	KindNotFound         = "not_found"
	KindMethodNotAllowed = "method_not_allowed"
	KindConflict         = "conflict"
	KindStorage          = "storage_failure"
	KindTimeout          = "timeout"
	KindInternal         = "internal"
)

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse is the envelope of every error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

var (
	errRouteNotFound    = fmt.Errorf("route %w", educontent.ErrNotFound)
	errMethodNotAllowed = errors.New("method not allowed")
)

type apiError struct {
	status int
	body   ErrorBody
}

func classify(err error) apiError {
	var fieldErr *fieldErrors
	var validationErr *educontent.ValidationError

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, ErrorBody{Kind: KindUnauthorized, Message: "invalid email or password"}}
	case errors.Is(err, educontent.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		return apiError{http.StatusUnauthorized, ErrorBody{Kind: KindUnauthorized, Message: "authentication required"}}
	case errors.Is(err, auth.ErrEmailTaken):
		return apiError{http.StatusConflict, ErrorBody{Kind: KindConflict, Message: "email already registered"}}
	case errors.Is(err, educontent.ErrForbidden):
		return apiError{http.StatusForbidden, ErrorBody{Kind: KindForbidden, Message: "not allowed to modify this resource"}}
	case errors.Is(err, educontent.ErrContentNotFound):
		return apiError{http.StatusNotFound, ErrorBody{Kind: KindNotFound, Message: "content not found"}}
	case errors.Is(err, educontent.ErrFileNotFound):
		return apiError{http.StatusNotFound, ErrorBody{Kind: KindNotFound, Message: "file not found"}}
	case errors.Is(err, auth.ErrUserNotFound):
		return apiError{http.StatusNotFound, ErrorBody{Kind: KindNotFound, Message: "user not found"}}
	case errors.Is(err, errRouteNotFound):
		return apiError{http.StatusNotFound, ErrorBody{Kind: KindNotFound, Message: "route not found"}}
	case errors.Is(err, educontent.ErrNotFound):
		return apiError{http.StatusNotFound, ErrorBody{Kind: KindNotFound, Message: "not found"}}
	case errors.Is(err, errMethodNotAllowed):
		return apiError{http.StatusMethodNotAllowed, ErrorBody{Kind: KindMethodNotAllowed, Message: "method not allowed"}}
	case errors.Is(err, educontent.ErrFileTooLarge):
		return apiError{http.StatusBadRequest, ErrorBody{Kind: KindFileTooLarge, Message: "file exceeds the maximum upload size"}}
	case errors.Is(err, educontent.ErrUnsupportedMediaType):
		return apiError{http.StatusBadRequest, ErrorBody{Kind: KindUnsupportedMedia, Message: "file type is not allowed"}}
	case errors.As(err, &fieldErr):
		return apiError{http.StatusBadRequest, ErrorBody{Kind: KindValidation, Message: fieldErr.Error(), Fields: fieldErr.fields}}
	case errors.As(err, &validationErr):
		body := ErrorBody{Kind: KindValidation, Message: validationErr.Error()}
		if validationErr.Field != "" {
			body.Fields = map[string]string{validationErr.Field: validationErr.Reason}
		}
		return apiError{http.StatusBadRequest, body}
	case errors.Is(err, educontent.ErrValidation):
		return apiError{http.StatusBadRequest, ErrorBody{Kind: KindValidation, Message: "invalid request"}}
	case errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusGatewayTimeout, ErrorBody{Kind: KindTimeout, Message: "request timed out"}}
	case errors.Is(err, educontent.ErrStorageFailure):
		return apiError{http.StatusInternalServerError, ErrorBody{Kind: KindStorage, Message: "file storage failed"}}
	default:
		return apiError{http.StatusInternalServerError, ErrorBody{Kind: KindInternal, Message: "internal server error"}}
	}
}

// renderError writes err as an ErrorResponse. Server-side failures are logged
// and never leak their details.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	if e.status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.DebugContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "status", e.status, "error", err)
	}
	render.Status(r, e.status)
	render.JSON(w, r, ErrorResponse{Error: e.body})
}

// badRequest renders a validation error without a specific field.
func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	renderError(w, r, &educontent.ValidationError{Reason: message})
}
