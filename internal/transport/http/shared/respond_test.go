package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "heirloom/pkg/domain-errors"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		code dErrors.Code
		want int
	}{
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeInvalidInput, http.StatusBadRequest},
		{dErrors.CodeBadRequest, http.StatusBadRequest},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeNotEligible, http.StatusForbidden},
		{dErrors.CodeForbidden, http.StatusForbidden},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeAlreadyPending, http.StatusConflict},
		{dErrors.CodeAlreadyResolved, http.StatusConflict},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeCooldownActive, http.StatusTooManyRequests},
		{dErrors.CodeDecryptionFailed, http.StatusUnprocessableEntity},
		{dErrors.CodeTimeout, http.StatusGatewayTimeout},
		{dErrors.CodeInternal, http.StatusInternalServerError},
		{dErrors.Code("something_new"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.code), "code %s", tc.code)
	}
}

func TestWriteError(t *testing.T) {
	t.Run("domain error carries its code and message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(dErrors.CodeCooldownActive, "cooldown active, next request allowed in 24h"))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "cooldown_active", body["error"])
		assert.Contains(t, body["error_description"], "cooldown active")
	})

	t.Run("plain errors render as internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "internal", body["error"])
		assert.Equal(t, "internal error", body["error_description"])
	})
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]any{"request_id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc", body["request_id"])
}
