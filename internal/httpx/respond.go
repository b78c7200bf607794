// Package httpx provides the JSON response envelope and server plumbing
// shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/formloom/formloom/internal/apperr"
)

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

// JSON writes a success envelope with the supplied status code. A nil
// payload still produces {"success":true}.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: payload})
}

// Error converts err into the uniform failure envelope. Unrecognised
// errors are reported as an opaque internal failure so nothing crosses
// the HTTP boundary unencoded.
func Error(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}
