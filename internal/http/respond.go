package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_food/internal/assets"
	"github.com/fjod/go_food/internal/repository"
	"github.com/fjod/go_food/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP status codes. Validation and
// not-found errors carry their precise message to the client; anything else
// is logged in full and surfaced as a generic failure.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, assets.ErrUnsupportedFileType),
		errors.Is(err, assets.ErrFileTooLarge):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, repository.ErrMenuItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrMenuItemInUse):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
