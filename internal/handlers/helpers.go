package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/tessera/internal/services/atlassian"
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

// RequireUser extracts the acting user's ID from the X-User-ID header or
// the user_id query parameter. Returns "" after writing an error response
// when neither is present.
func RequireUser(w http.ResponseWriter, r *http.Request) string {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = r.URL.Query().Get("user_id")
	}
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "User ID is required (X-User-ID header or user_id parameter)")
	}
	return userID
}

// WriteClientError maps client errors onto HTTP status codes: validation
// problems are the caller's fault, timeouts and connection failures are
// upstream problems.
func WriteClientError(w http.ResponseWriter, err error) error {
	var validationErr *atlassian.ValidationError
	if errors.As(err, &validationErr) {
		return WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"error":  "Configuration is not valid",
			"errors": validationErr.Errors,
		})
	}

	var timeoutErr *atlassian.TimeoutError
	if errors.As(err, &timeoutErr) {
		return WriteError(w, http.StatusGatewayTimeout, err.Error())
	}

	var connErr *atlassian.ConnectionError
	if errors.As(err, &connErr) {
		return WriteError(w, http.StatusBadGateway, err.Error())
	}

	return WriteError(w, http.StatusInternalServerError, err.Error())
}
