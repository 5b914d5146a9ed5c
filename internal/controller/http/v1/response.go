package v1

import (
	"encoding/json"
	"net/http"
)

// Every internal failure collapses to this one client-visible message.
const internalErrorMessage = "An unexpected error occurred"

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{
		Success: false,
		Message: message,
	})
}

func respondInternalError(w http.ResponseWriter) {
	respondError(w, http.StatusInternalServerError, internalErrorMessage)
}
