package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API's failure envelope. It mirrors handler.writeError
// for responses produced before a request reaches a handler.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
