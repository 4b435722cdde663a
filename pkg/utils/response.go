package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"go.uber.org/zap"
)

type Response struct {
	Message string `json:"message" example:"event is sold out"`
	Kind    string `json:"kind,omitempty" example:"precondition_failed"`
}

func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("can't encode response", zap.Error(err))
	}
}

func RespondWithError(w http.ResponseWriter, status int, message string) {
	RespondWithJSON(w, status, Response{Message: message})
}

// RespondWithDomainError maps the error kind to a status. Store and processor
// failures never leak their message.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	kind := domain.Kind(err)
	status := StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	RespondWithJSON(w, status, Response{Message: message, Kind: kind})
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
