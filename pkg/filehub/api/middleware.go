package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
)

type contextKey string

// callerIDKey holds the authenticated caller's user ID in the request context.
const callerIDKey contextKey = "caller_id"

// CallerID returns the authenticated caller's user ID, or "" when the
// request was not authenticated.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(callerIDKey).(string)
	return id
}

// WithCallerID returns a copy of ctx carrying the given caller ID. Exposed
// for tests and for deployments that authenticate upstream.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDKey, callerID)
}

// CallerExtractor copies the JWT "sub" claim into the request context as the
// caller ID. It must run after jwtauth.Verifier; requests without a valid
// token pass through with an empty caller ID, so pair it with
// jwtauth.Authenticator when authentication is mandatory.
func CallerExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err == nil {
			if sub, ok := claims["sub"].(string); ok && sub != "" {
				r = r.WithContext(WithCallerID(r.Context(), sub))
			}
		}
		next.ServeHTTP(w, r)
	})
}
