// Package trace tags every request with an id that follows it through the
// logs and back to the client.
package trace

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type ContextKey string

const (
	RequestIDKey    ContextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

// Ids supplied by a caller are only trusted when they look like one.
var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware reuses a well-formed X-Request-ID or mints a new one, echoes
// it on the response and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validID.MatchString(id) {
			id = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID returns the id stored by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromRequest adapts GetRequestID for log.RequestIDMiddleware.
func FromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}
