package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)

	var captured Session
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		captured, _ = SessionFromContext(r.Context())
	})
	protected := RequireAuth(ts)(next)

	t.Run("no cookie", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
		if called {
			t.Error("handler ran without a session")
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
		if called {
			t.Error("handler ran with an invalid token")
		}
	})

	t.Run("valid token", func(t *testing.T) {
		called = false
		token, err := ts.Generate(Session{UserID: "user-123", Handle: "alice-1234"})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
		if !called {
			t.Fatal("handler did not run with a valid session")
		}
		if captured.UserID != "user-123" || captured.Handle != "alice-1234" {
			t.Errorf("session in context = %+v", captured)
		}
	})
}

func TestSessionFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := SessionFromContext(req.Context()); ok {
		t.Error("SessionFromContext() = ok for an anonymous request")
	}
}
