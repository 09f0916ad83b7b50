// Package shared holds the JSON envelope helpers used by every handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "heirloom/pkg/domain-errors"
)

// errorResponse is the wire shape of every failed request.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// statusFor maps domain error codes to HTTP status codes. Unknown codes fall
// through to 500 so new codes fail loudly instead of leaking as 200s.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotEligible, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeAlreadyPending, dErrors.CodeAlreadyResolved, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeCooldownActive:
		return http.StatusTooManyRequests
	case dErrors.CodeDecryptionFailed:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders a domain error as a JSON envelope. The message is safe
// to expose: services put reasons there, never internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(code))
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:       string(code),
		Description: dErrors.MessageOf(err),
	})
}

// WriteJSON renders a success payload.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
