// Package middleware holds net/http middleware shared by the user services.
package middleware

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ErrorBody answers every 5xx response with {"error":"<status text>"} in
// place of the body the handler wrote. Error detail never reaches the caller.
func ErrorBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&errorBodyWriter{ResponseWriter: w}, r)
	})
}

type errorBodyWriter struct {
	http.ResponseWriter
	status int
}

func (w *errorBodyWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}

	w.status = code

	if code < http.StatusInternalServerError {
		w.ResponseWriter.WriteHeader(code)
		return
	}

	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")

	w.ResponseWriter.WriteHeader(code)

	_ = json.NewEncoder(w.ResponseWriter).Encode(errorResponse{Error: http.StatusText(code)})
}

func (w *errorBodyWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}

	if w.status >= http.StatusInternalServerError {
		return len(b), nil
	}

	return w.ResponseWriter.Write(b)
}

func (w *errorBodyWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
