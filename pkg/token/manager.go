// Package token decides, per request, whether the session holds a usable
// access token, refreshing it against the provider when it is expired or
// about to expire.
package token

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
	"go.opentelemetry.io/otel/attribute"
)

// safetyMargin is subtracted from the token expiry before deciding to
// refresh, so an access token never expires mid-request under clock skew or
// in-flight latency.
const safetyMargin = 5 * time.Minute

// Refresher mints a new access token from a refresh token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*netatmo.Token, error)
}

// Manager is the token lifecycle manager. It serves cached tokens while they
// are fresh and refreshes lazily on the first access that finds them expiring.
//
// Concurrent requests that both observe an expiring token will both attempt a
// refresh; if the provider rotates the refresh token, the loser's attempt
// fails and that request reports unauthenticated. There is deliberately no
// single-flight here: the dashboard is single-user and the next request
// recovers via the rotated token the winner persisted.
type Manager struct {
	store  core.TokenStore
	client Refresher
}

// NewManager creates a Manager over the given store and provider client.
func NewManager(store core.TokenStore, client Refresher) *Manager {
	return &Manager{
		store:  store,
		client: client,
	}
}

// ValidAccessToken returns a currently valid access token for the session, or
// ok=false when no path to one exists. It never returns an error: every
// failure collapses to unauthenticated, and only an invalid_grant-class
// provider rejection clears the stored credentials.
func (m *Manager) ValidAccessToken(ctx context.Context, w http.ResponseWriter, r *http.Request) (token string, ok bool) {
	logger := core.LoggerFromCtx(ctx)

	rec, err := m.store.GetToken(r)
	if err != nil {
		if !errors.Is(err, core.ErrTokenNotFound) {
			logger.Error("Failed to read token record", "error", err)
		}
		return "", false
	}

	now := time.Now()
	if rec.FreshFor(now, safetyMargin) {
		return rec.AccessToken, true
	}
	if rec.RefreshToken == "" {
		return "", false
	}

	// A browser abort must not interrupt the refresh and persist sequence,
	// or the store could end up holding a rotated-away refresh token.
	ctx = context.WithoutCancel(ctx)

	fresh, err := m.client.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		if errors.Is(err, netatmo.ErrInvalidGrant) {
			logger.Warn("Refresh token rejected by provider, clearing session", "error", err)
			if clearErr := m.store.ClearToken(w, r); clearErr != nil {
				logger.Error("Failed to clear token record", "error", clearErr)
			}
		} else {
			logger.Error("Token refresh failed", "error", err)
		}
		return "", false
	}

	next := &core.TokenRecord{
		AccessToken:     fresh.AccessToken,
		AccessExpiresAt: now.Add(time.Duration(fresh.ExpiresIn) * time.Second),
		RefreshToken:    rec.RefreshToken,
	}
	if fresh.RefreshToken != "" {
		// Rotated by the provider; the old refresh token must not be reused.
		next.RefreshToken = fresh.RefreshToken
	}
	if err := m.store.SaveToken(w, r, next); err != nil {
		// The token is still good for this request even if persisting failed.
		logger.Error("Failed to persist refreshed token", "error", err)
	}

	core.AddRequestAttributes(ctx,
		attribute.Bool("token.refreshed", true),
		attribute.Bool("token.rotated", fresh.RefreshToken != ""),
	)
	return fresh.AccessToken, true
}
