package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

type stubVerifier map[string]user.Principal

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := s[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

type recordingProfiles struct {
	synced []string
	err    error
}

func (p *recordingProfiles) EnsureUser(_ context.Context, principal user.Principal) (user.User, error) {
	p.synced = append(p.synced, principal.UserID)
	return user.User{ID: principal.UserID}, p.err
}

func TestRequireAuth(t *testing.T) {
	verifier := stubVerifier{"good": {UserID: "u1", Role: user.RoleUser}}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", status: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "valid token", header: "bearer good", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen user.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = principalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireAuth(verifier, nil, logging.NewNop(), next)

			req := httptest.NewRequest(http.MethodGet, "/v1/fantasy-teams", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusOK && seen.UserID != "u1" {
				t.Fatalf("expected principal in context, got %+v", seen)
			}
		})
	}
}

func TestRequireAuth_ProfileSyncFailureDoesNotBlock(t *testing.T) {
	profiles := &recordingProfiles{err: errors.New("store offline")}
	handler := RequireAuth(stubVerifier{"good": {UserID: "u1"}}, profiles, logging.NewNop(),
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	req := httptest.NewRequest(http.MethodGet, "/v1/me/leagues", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected request to pass through, got %d", rec.Code)
	}
	if len(profiles.synced) != 1 || profiles.synced[0] != "u1" {
		t.Fatalf("expected one profile sync for u1, got %v", profiles.synced)
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name      string
		principal *user.Principal
		status    int
	}{
		{name: "no principal", status: http.StatusUnauthorized},
		{name: "regular user", principal: &user.Principal{UserID: "u1", Role: user.RoleUser}, status: http.StatusForbidden},
		{name: "admin", principal: &user.Principal{UserID: "root", Role: user.RoleAdmin}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/admin/reconcile", nil)
			if tt.principal != nil {
				req = req.WithContext(withPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(next).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
