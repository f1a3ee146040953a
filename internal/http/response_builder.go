// Package http serves the attendance ledger as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"presenze/internal/core"
	"presenze/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body sends no
// content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorResponse builds {"error": message, "code": code}.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message, Code: code})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "invalid", message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", "internal server error")
}

// errorStatus maps a domain error to its HTTP status and a stable code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{core.ErrNotFound, http.StatusNotFound, "not_found"},
	{core.ErrEmptyRange, http.StatusNotFound, "empty_range"},
	{core.ErrAlreadyClockedIn, http.StatusConflict, "already_clocked_in"},
	{core.ErrDuplicateDay, http.StatusConflict, "duplicate_day"},
	{core.ErrMissingFields, http.StatusUnprocessableEntity, "missing_fields"},
	{core.ErrMissingBounds, http.StatusUnprocessableEntity, "missing_bounds"},
	{core.ErrDateOutOfRange, http.StatusUnprocessableEntity, "date_out_of_range"},
	{core.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
	{core.ErrInvalidName, http.StatusUnprocessableEntity, "invalid_name"},
	{services.ErrNoExportTarget, http.StatusServiceUnavailable, "no_export_target"},
}

// FromError turns err into an error response. Unknown errors become a 500
// without leaking their text.
func FromError(err error) *JSONResponseBuilder {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return ErrorResponse(e.status, e.code, err.Error())
		}
	}
	return InternalServerError()
}
