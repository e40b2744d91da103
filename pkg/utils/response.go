package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"go.uber.org/zap"
)

type Response struct {
	Error string `json:"error,omitempty" example:"Internal server error"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("can't encode response", zap.Error(err))
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Response{Error: message})
}

// StatusFor maps a business error kind to its HTTP status. Anything outside
// the taxonomy is an internal failure.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGone):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func RespondWithServiceError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		RespondWithError(w, code, "Internal server error")
		return
	}
	RespondWithError(w, code, err.Error())
}
