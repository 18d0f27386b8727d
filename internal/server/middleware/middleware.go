// Package middleware wraps the API with the cross-cutting request handling
// every endpoint shares: auth, per-client rate limiting, request logging,
// and CORS.
package middleware

import "net/http"

// reject ends the request with a JSON error body. Middleware rejections use
// the same {"error": ...} shape the handlers do, so clients parse one format.
func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
