package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avelar/taskboard-be/internal/services"
	"github.com/avelar/taskboard-be/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondServiceError maps service failures onto the wire taxonomy:
// validation and duplicate-email problems carry a field-scoped "error"
// message, ownership misses read as a plain not-found, and everything else
// collapses into a generic 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Message})
	case errors.Is(err, services.ErrEmailTaken):
		respondJSON(w, http.StatusConflict, map[string]string{"error": "Email is already registered"})
	case errors.Is(err, services.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
	case errors.Is(err, storage.ErrAvatarTooLarge), errors.Is(err, storage.ErrUnsupportedImage):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
}
