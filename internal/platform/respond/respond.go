// Package respond writes the gateway's synthesized JSON responses. Every
// response the gateway produces itself (as opposed to relaying from an
// upstream) uses the same envelope shape.
package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every synthesized error response.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Error writes a failure envelope with the given status and message.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Error: msg})
}

// JSON writes v as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
