// Package web holds the JSON response helpers and the error-to-status
// mapping shared by all handlers.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Message writes the standard {"message": ...} body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error writes an error response. Client errors (4xx) carry only the
// message; the generic 500 path additionally echoes the error text, and
// the underlying error is logged through the request-scoped logger.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Int("status", status).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(msg)
		body := map[string]string{"message": msg}
		if err != nil {
			body["error"] = err.Error()
		}
		JSON(w, status, body)
		return
	}
	if err != nil {
		logger.Warn().Err(err).
			Int("status", status).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(msg)
	}
	Message(w, status, msg)
}
