package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the standard error body. RequestID mirrors the
// X-Request-Id header so AMP clients can report failures.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message, requestID string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Code:      statusCode,
		Message:   message,
		RequestID: requestID,
	}
	WriteJSON(w, statusCode, response)
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusBadRequest, message, requestID)
}

// WriteUnauthorized writes a 401 without detailing which check failed.
func WriteUnauthorized(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", requestID)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusNotFound, message, requestID)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusInternalServerError, message, requestID)
}
