// internal/app/system/apiutil/apiutil.go

// Package apiutil holds the JSON response envelope shared by the API
// feature handlers: {"success": bool, "data": ...} or
// {"success": false, "error": "..."}.
package apiutil

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK writes a success envelope with data.
func OK(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// Msg writes a success envelope with a human-readable message and no data.
func Msg(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Success: true, Message: msg})
}

// Err writes a failure envelope.
func Err(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Success: false, Error: msg})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
