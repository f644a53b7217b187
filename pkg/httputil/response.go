// Package httputil writes responses in the shapes the Bidster API uses:
// {"error": ...} from the marketplace views, {"detail": ...} from the
// framework layer and {"non_field_errors": [...]} from the token endpoint.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as JSON with the given status code.
// A nil v writes only the status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteDetail writes {"detail": message}, the shape used for
// authentication failures, unknown routes and malformed bodies.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"detail": message})
}

// WriteFieldErrors writes {"non_field_errors": messages} with status 400.
func WriteFieldErrors(w http.ResponseWriter, messages ...string) {
	WriteJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": messages})
}

// WriteSuccess writes {"success": message} with status 200.
func WriteSuccess(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, map[string]string{"success": message})
}

// WriteOK writes a 200 OK response with v.
func WriteOK(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, v)
}

// WriteCreated writes a 201 Created response with the created resource.
func WriteCreated(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusCreated, v)
}

// WriteNotFound writes the 404 body for a missing object or route.
func WriteNotFound(w http.ResponseWriter) {
	WriteDetail(w, http.StatusNotFound, "Not found.")
}
