package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"tiledash/internal/backup"
	"tiledash/internal/core"
	"tiledash/internal/log"
	"tiledash/internal/services"
	"tiledash/internal/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Request string            `json:"requestId,omitempty"`
}

// badRequest marks an error caused by the client's input.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// invalidInput lists the domain errors that mean the caller sent bad data.
var invalidInput = []error{
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidFrequency,
	core.ErrInvalidAnnualType,
	core.ErrInvalidBudgetType,
	core.ErrInvalidMethodType,
	core.ErrInvalidLastFour,
	core.ErrMissingBankName,
	core.ErrMissingAccountType,
	core.ErrEmptyCategoryID,
	services.ErrUnknownReport,
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var br badRequest
	var ve validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicatePaymentMethod), errors.Is(err, store.ErrDuplicateCategory):
		return http.StatusConflict
	case errors.As(err, &br), errors.As(err, &ve), backup.Invalid(err):
		return http.StatusBadRequest
	}
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
}

// NewJSONResponse creates a builder with a default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a response header.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Send writes headers, status and body. A nil body with 204 writes nothing.
func (b *JSONResponseBuilder) Send(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Send(w)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	NewJSONResponse().Status(status).Data(ErrorResponse{
		Error:   msg,
		Request: requestID(r),
	}).Send(w)
}

// fail maps err to a status and writes it. Server errors are logged and
// their details hidden from the caller.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger := log.FromContext(r.Context())
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err,
			logger.Component(), op, log.NewFields())
		writeError(w, r, status, "internal error")
		return
	}

	resp := ErrorResponse{Error: err.Error(), Request: requestID(r)}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		resp.Error = "validation failed"
		resp.Fields = validationMessages(ve)
	}
	NewJSONResponse().Status(status).Data(resp).Send(w)
}
