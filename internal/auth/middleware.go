package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type prevents other packages from reading or
// shadowing the session value in the context.
type contextKey string

const sessionKey contextKey = "session"

// CookieName is the HttpOnly cookie carrying the session JWT.
const CookieName = "token"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the session cookie, validates it, and stores the
// Session in the request context. If the token is missing or invalid it
// returns 401 Unauthorized and stops the chain — absence of a usable session
// is an authentication failure, never a core-logic one.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := extractSession(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext retrieves the authenticated session from the request
// context. Returns (Session{}, false) for anonymous requests.
//
// Usage in handlers:
//
//	session, ok := auth.SessionFromContext(r.Context())
//	if !ok {
//	    // unauthenticated
//	}
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok && s.UserID != ""
}

// extractSession reads the JWT cookie and validates it.
func extractSession(r *http.Request, tokens *TokenService) (Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return Session{}, err
	}

	return tokens.Validate(cookie.Value)
}
