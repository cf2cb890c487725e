package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nucleo/portfolio-tracker/internal/storage"
)

// Common error codes
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodePassRunning   = "PASS_ALREADY_RUNNING"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// ErrorBody is the JSON shape of an API error response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// mapError maps known errors to HTTP status codes
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, storage.ErrPortfolioNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "portfolio not found"
	case errors.Is(err, storage.ErrLockHeld):
		return http.StatusConflict, ErrCodePassRunning, "a pass is already running"
	default:
		return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"
	}
}
