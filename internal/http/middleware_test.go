package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/channasilva/crms-server/internal/application"
	"github.com/channasilva/crms-server/internal/booking"
)

type stubValidator struct {
	principal application.Principal
	err       error
	lastToken string
}

func (s *stubValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	s.lastToken = token
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a token", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{}
		middleware := RequireSession(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))
		handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not be reached")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/bookings", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
		}
	})

	t.Run("maps session errors to 401", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			err  error
		}{
			{name: "unknown token", err: application.ErrUnauthorized},
			{name: "expired session", err: application.ErrSessionExpired},
			{name: "revoked session", err: application.ErrSessionRevoked},
			{name: "missing session row", err: application.ErrNotFound},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				validator := &stubValidator{err: tc.err}
				middleware := RequireSession(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))
				handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
					t.Fatal("handler should not be reached")
				}))

				req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
				req.Header.Set("Authorization", "Bearer bad-token")
				recorder := httptest.NewRecorder()
				handler.ServeHTTP(recorder, req)

				if recorder.Code != http.StatusUnauthorized {
					t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
				}
				if validator.lastToken != "bad-token" {
					t.Fatalf("expected token %q, got %q", "bad-token", validator.lastToken)
				}
			})
		}
	})

	t.Run("injects the principal for valid tokens", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{principal: application.Principal{UserID: "user-1", Role: booking.RoleAdmin}}
		middleware := RequireSession(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))

		var seen application.Principal
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
		}
		if validator.lastToken != "cookie-token" {
			t.Fatalf("expected cookie token to be used, got %q", validator.lastToken)
		}
		if seen.UserID != "user-1" || seen.Role != booking.RoleAdmin {
			t.Fatalf("unexpected principal injected: %+v", seen)
		}
	})

	t.Run("prefers the bearer header over the cookie", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{principal: application.Principal{UserID: "user-1", Role: booking.RoleStudent}}
		middleware := RequireSession(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if validator.lastToken != "header-token" {
			t.Fatalf("expected header token to win, got %q", validator.lastToken)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	middleware := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var sawLogger bool
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusAccepted)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, recorder.Code)
	}
	if !sawLogger {
		t.Fatal("expected a request-scoped logger in the context")
	}
}
