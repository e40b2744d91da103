package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "Not found",
			err:          fmt.Errorf("user %w", domain.ErrNotFound),
			expectedCode: http.StatusNotFound,
			expectedMsg:  "user not found",
		},
		{
			name:         "Invalid input",
			err:          fmt.Errorf("%w: insufficient points", domain.ErrInvalidInput),
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "invalid input: insufficient points",
		},
		{
			name:         "Forbidden",
			err:          fmt.Errorf("%w: user is not verified", domain.ErrForbidden),
			expectedCode: http.StatusForbidden,
			expectedMsg:  "forbidden: user is not verified",
		},
		{
			name:         "Conflict",
			err:          domain.ErrConflict,
			expectedCode: http.StatusConflict,
			expectedMsg:  "conflict",
		},
		{
			name:         "Gone",
			err:          domain.ErrGone,
			expectedCode: http.StatusGone,
			expectedMsg:  "gone",
		},
		{
			name:         "Internal error hides details",
			err:          errors.New("connection refused"),
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithServiceError(w, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body Response
			assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.expectedMsg, body.Error)
		})
	}
}
