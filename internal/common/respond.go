package common

import (
	"encoding/json"
	"net/http"
)

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PlatformError renders the cart platform's error shape. Storefront clients
// read the description field verbatim for inline display.
func PlatformError(w http.ResponseWriter, status int, description string) {
	JSON(w, status, map[string]string{"description": description})
}
