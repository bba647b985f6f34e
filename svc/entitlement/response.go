package entitlement

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/subscription"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// httpError pairs a status code with a stable error code.
type httpError struct {
	Status int
	Code   string
}

var (
	errBadRequest         = httpError{Status: http.StatusBadRequest, Code: "bad_request"}
	errUnauthorized       = httpError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	errNotFound           = httpError{Status: http.StatusNotFound, Code: "not_found"}
	errValidation         = httpError{Status: http.StatusUnprocessableEntity, Code: "validation_error"}
	errInternal           = httpError{Status: http.StatusInternalServerError, Code: "internal_error"}
	errBadGateway         = httpError{Status: http.StatusBadGateway, Code: "bad_gateway"}
	errServiceUnavailable = httpError{Status: http.StatusServiceUnavailable, Code: "service_unavailable"}
)

// decodeError marks a request body or parameter that could not be parsed.
type decodeError struct {
	field string
	err   error
}

func (e decodeError) Error() string { return e.field + ": " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func classify(err error) httpError {
	var de decodeError
	switch {
	case errors.As(err, &de):
		return errBadRequest
	case errors.Is(err, subscription.ErrWebhookVerificationFailed):
		return errUnauthorized
	case errors.Is(err, entitlement.ErrNotFound), errors.Is(err, trial.ErrRuleNotFound):
		return errNotFound
	case errors.Is(err, entitlement.ErrInvalidArgument),
		errors.Is(err, trial.ErrInvalidArgument),
		errors.Is(err, subscription.ErrInvalidArgument):
		return errValidation
	case errors.Is(err, subscription.ErrProviderError):
		return errBadGateway
	case errors.Is(err, ErrBillingUnavailable), errors.Is(err, subscription.ErrMissingPriceID):
		return errServiceUnavailable
	}
	return errInternal
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, JSONResponse{Data: data})
}

// respondError renders err in the envelope. Server-side failures are logged
// and their message is replaced with the status text.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	he := classify(err)
	detail := &ErrorDetail{Code: he.Code, Message: err.Error()}

	var de decodeError
	if errors.As(err, &de) {
		detail.Details = map[string][]string{de.field: {de.err.Error()}}
	}
	if he.Status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
		detail.Message = http.StatusText(he.Status)
	}
	writeJSON(w, he.Status, JSONResponse{Error: detail})
}
