package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/siderealab/siderea/internal/httpclient"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteBackendError maps a backend failure onto the response, preserving the
// upstream status code when the failure was an API error.
func WriteBackendError(w http.ResponseWriter, err error) error {
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return WriteError(w, apiErr.StatusCode, apiErr.Message)
	}
	return WriteError(w, http.StatusBadGateway, err.Error())
}

// DecodeJSON decodes the request body into dst, writing a 400 on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// AuthChecker interface for services that can check authentication status.
type AuthChecker interface {
	IsAuthenticated() bool
}

// RequireAuth checks if the user is authenticated.
// Returns true if authenticated, false otherwise (and writes error response).
func RequireAuth(w http.ResponseWriter, session AuthChecker) bool {
	if !session.IsAuthenticated() {
		WriteError(w, http.StatusUnauthorized, "Not authenticated. Please log in first.")
		return false
	}
	return true
}
