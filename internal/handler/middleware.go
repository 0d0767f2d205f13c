package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
)

type ctxKey int

const uidKey ctxKey = iota

// UID returns the authenticated user id stored by the Auth middleware, or
// the empty string when the request is unauthenticated.
func UID(r *http.Request) string {
	uid, _ := r.Context().Value(uidKey).(string)
	return uid
}

// withUID returns a request whose context carries the authenticated user id.
func withUID(r *http.Request, uid string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), uidKey, uid))
}

// TokenParser verifies a bearer token and returns the user id it was issued
// to. AuthService satisfies it.
type TokenParser interface {
	ParseToken(tokenStr string) (string, error)
}

// Auth returns middleware that requires a valid "Authorization: Bearer"
// token and stores the authenticated user id in the request context.
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			uid, err := parser.ParseToken(tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, withUID(r, uid))
		})
	}
}

// Logger is a minimal access-log middleware.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// CORS is a permissive CORS middleware for browser clients.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
