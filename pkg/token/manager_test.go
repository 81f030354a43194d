package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
	"github.com/go-training/netatmo-dashboard/pkg/store"
)

type fakeRefresher struct {
	calls int
	token *netatmo.Token
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (*netatmo.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

// seedSession saves the record into the store and returns a request that
// carries the resulting session cookie.
func seedSession(t *testing.T, sessions core.SessionStore, rec *core.TokenRecord) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	if err := sessions.SaveToken(w, httptest.NewRequest(http.MethodGet, "/", nil), rec); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return r
}

func TestManager_FreshToken(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{}
	manager := NewManager(sessions, refresher)

	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "fresh-access",
		AccessExpiresAt: time.Now().Add(time.Hour),
		RefreshToken:    "refresh-1",
	})

	token, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r)
	if !ok {
		t.Fatal("Expected a valid token")
	}
	if token != "fresh-access" {
		t.Errorf("Token = %q, want fresh-access", token)
	}
	if refresher.calls != 0 {
		t.Errorf("Expected no refresh calls for a fresh token, got %d", refresher.calls)
	}
}

func TestManager_NoRecord(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{}
	manager := NewManager(sessions, refresher)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r); ok {
		t.Error("Expected ok=false without a stored record")
	}
	if refresher.calls != 0 {
		t.Errorf("Expected no refresh calls, got %d", refresher.calls)
	}
}

func TestManager_ExpiringToken_Refreshes(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{token: &netatmo.Token{
		AccessToken: "new-access",
		ExpiresIn:   10800,
	}}
	manager := NewManager(sessions, refresher)

	// Expires inside the safety margin, so the token counts as expiring
	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "old-access",
		AccessExpiresAt: time.Now().Add(time.Minute),
		RefreshToken:    "refresh-1",
	})

	token, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r)
	if !ok {
		t.Fatal("Expected a valid token after refresh")
	}
	if token != "new-access" {
		t.Errorf("Token = %q, want new-access", token)
	}
	if refresher.calls != 1 {
		t.Errorf("Expected exactly one refresh call, got %d", refresher.calls)
	}

	// The refreshed record is persisted; no rotation means the old refresh
	// token is kept.
	rec, err := sessions.GetToken(r)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.AccessToken != "new-access" {
		t.Errorf("Persisted access token = %q, want new-access", rec.AccessToken)
	}
	if rec.RefreshToken != "refresh-1" {
		t.Errorf("Persisted refresh token = %q, want refresh-1", rec.RefreshToken)
	}
	if time.Until(rec.AccessExpiresAt) < 2*time.Hour {
		t.Errorf("Persisted expiry too soon: %v", rec.AccessExpiresAt)
	}
}

func TestManager_RefreshRotation(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{token: &netatmo.Token{
		AccessToken:  "new-access",
		RefreshToken: "refresh-2",
		ExpiresIn:    10800,
	}}
	manager := NewManager(sessions, refresher)

	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "old-access",
		AccessExpiresAt: time.Now().Add(-time.Minute),
		RefreshToken:    "refresh-1",
	})

	if _, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r); !ok {
		t.Fatal("Expected a valid token after refresh")
	}

	rec, err := sessions.GetToken(r)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.RefreshToken != "refresh-2" {
		t.Errorf("Persisted refresh token = %q, want rotated refresh-2", rec.RefreshToken)
	}
}

func TestManager_RefreshedTokenServedFromStore(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{token: &netatmo.Token{
		AccessToken: "new-access",
		ExpiresIn:   10800,
	}}
	manager := NewManager(sessions, refresher)

	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "old-access",
		AccessExpiresAt: time.Now().Add(-time.Minute),
		RefreshToken:    "refresh-1",
	})

	if _, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r); !ok {
		t.Fatal("Expected a valid token after refresh")
	}

	// The next request finds the refreshed token fresh and stays off the network
	token, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r)
	if !ok || token != "new-access" {
		t.Fatalf("Expected persisted token, got %q ok=%v", token, ok)
	}
	if refresher.calls != 1 {
		t.Errorf("Expected one refresh call total, got %d", refresher.calls)
	}
}

func TestManager_InvalidGrant_ClearsStore(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{err: &netatmo.TokenError{
		StatusCode: http.StatusBadRequest,
		Code:       "invalid_grant",
	}}
	manager := NewManager(sessions, refresher)

	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "old-access",
		AccessExpiresAt: time.Now().Add(-time.Minute),
		RefreshToken:    "dead-refresh",
	})

	if _, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r); ok {
		t.Error("Expected ok=false for a rejected refresh token")
	}

	// The dead credentials are gone, so the next attempt cannot retry them
	if _, err := sessions.GetToken(r); !errors.Is(err, core.ErrTokenNotFound) {
		t.Errorf("Expected cleared store, got %v", err)
	}
}

func TestManager_TransientRefreshFailure_KeepsStore(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{err: &netatmo.TokenError{
		StatusCode: http.StatusInternalServerError,
		Code:       "server_error",
	}}
	manager := NewManager(sessions, refresher)

	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "old-access",
		AccessExpiresAt: time.Now().Add(-time.Minute),
		RefreshToken:    "refresh-1",
	})

	if _, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r); ok {
		t.Error("Expected ok=false for a failed refresh")
	}

	// Transient failure keeps the refresh token for the next attempt
	rec, err := sessions.GetToken(r)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.RefreshToken != "refresh-1" {
		t.Errorf("Refresh token = %q, want refresh-1", rec.RefreshToken)
	}
}

func TestManager_ExpiredWithoutRefreshToken(t *testing.T) {
	sessions := store.NewMemoryStore(false)
	refresher := &fakeRefresher{}
	manager := NewManager(sessions, refresher)

	r := seedSession(t, sessions, &core.TokenRecord{
		AccessToken:     "old-access",
		AccessExpiresAt: time.Now().Add(-time.Minute),
	})

	if _, ok := manager.ValidAccessToken(context.Background(), httptest.NewRecorder(), r); ok {
		t.Error("Expected ok=false without a refresh token")
	}
	if refresher.calls != 0 {
		t.Errorf("Expected no refresh calls, got %d", refresher.calls)
	}
}
