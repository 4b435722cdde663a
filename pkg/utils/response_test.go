package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedCode    int
		expectedKind    string
		expectedMessage string
	}{
		{
			name:            "Validation",
			err:             domain.ErrTipTooSmall,
			expectedCode:    http.StatusBadRequest,
			expectedKind:    "validation_error",
			expectedMessage: domain.ErrTipTooSmall.Error(),
		},
		{
			name:            "Not found",
			err:             domain.ErrEventNotFound,
			expectedCode:    http.StatusNotFound,
			expectedKind:    "not_found",
			expectedMessage: domain.ErrEventNotFound.Error(),
		},
		{
			name:            "Conflict",
			err:             domain.ErrAlreadyPurchased,
			expectedCode:    http.StatusConflict,
			expectedKind:    "conflict",
			expectedMessage: domain.ErrAlreadyPurchased.Error(),
		},
		{
			name:            "Precondition",
			err:             domain.ErrSoldOut,
			expectedCode:    http.StatusBadRequest,
			expectedKind:    "precondition_failed",
			expectedMessage: domain.ErrSoldOut.Error(),
		},
		{
			name:            "Signature",
			err:             domain.ErrSignatureInvalid,
			expectedCode:    http.StatusBadRequest,
			expectedKind:    "signature_invalid",
			expectedMessage: domain.ErrSignatureInvalid.Error(),
		},
		{
			name:            "Rate limited",
			err:             domain.ErrRateLimited,
			expectedCode:    http.StatusTooManyRequests,
			expectedKind:    "rate_limited",
			expectedMessage: domain.ErrRateLimited.Error(),
		},
		{
			name:            "External failure is masked",
			err:             domain.External("create intent", errors.New("api key sk_live_123 rejected")),
			expectedCode:    http.StatusInternalServerError,
			expectedKind:    "external_service_error",
			expectedMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondWithDomainError(rec, tt.err)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var resp Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedKind, resp.Kind)
			assert.Equal(t, tt.expectedMessage, resp.Message)
		})
	}
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithJSON(rec, http.StatusCreated, map[string]int64{"amount": 2000})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"amount":2000}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RespondWithJSON(rec, http.StatusOK, nil)
	assert.Empty(t, rec.Body.String())
}
