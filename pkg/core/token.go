package core

import (
	"errors"
	"net/http"
	"time"
)

var (
	// ErrTokenNotFound is returned when no token record exists for the session.
	ErrTokenNotFound = errors.New("token record not found")
	// ErrStateNotFound is returned when no CSRF state exists for the session.
	ErrStateNotFound = errors.New("csrf state not found")
	// ErrNilTokenRecord is returned when attempting to save a nil token record.
	ErrNilTokenRecord = errors.New("token record cannot be nil")
)

// TokenRecord holds the OAuth credentials for a single browser session.
type TokenRecord struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	RefreshToken    string    `json:"refresh_token"`
}

// FreshFor reports whether the access token is still usable at the given
// instant with the given safety margin before actual expiry.
func (t *TokenRecord) FreshFor(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.AccessExpiresAt.Sub(now) > margin
}

// TokenStore persists TokenRecords per browser session. Implementations are
// bound to the request/response pair because the session identity (and, for
// the cookie store, the record itself) round-trips through cookies.
type TokenStore interface {
	// GetToken returns the stored record, or ErrTokenNotFound when the
	// session has no credentials at all.
	GetToken(r *http.Request) (*TokenRecord, error)
	SaveToken(w http.ResponseWriter, r *http.Request, rec *TokenRecord) error
	ClearToken(w http.ResponseWriter, r *http.Request) error
}

// StateStore persists the single-use CSRF state for the authorization flow.
type StateStore interface {
	SaveState(w http.ResponseWriter, r *http.Request, value string) error
	// ConsumeState returns the stored value and deletes it, regardless of
	// what the caller does with it. Returns ErrStateNotFound when no state
	// is pending.
	ConsumeState(w http.ResponseWriter, r *http.Request) (string, error)
}

// SessionStore combines token and CSRF state persistence for one backend.
type SessionStore interface {
	TokenStore
	StateStore
}
