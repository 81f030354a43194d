// Package csrf binds an OAuth authorization attempt to the browser session
// that initiated it with a single-use random state value.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-training/netatmo-dashboard/pkg/core"
)

// 32 bytes of entropy, hex encoded in the authorization URL.
const stateBytes = 32

// Guard issues and verifies CSRF states over a StateStore.
type Guard struct {
	states core.StateStore
}

// NewGuard creates a Guard backed by the given store.
func NewGuard(states core.StateStore) *Guard {
	return &Guard{states: states}
}

// Issue generates a cryptographically random state, stores it for the
// session, and returns it for embedding in the authorization request.
func (g *Guard) Issue(w http.ResponseWriter, r *http.Request) (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	if err := g.states.SaveState(w, r, state); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}
	return state, nil
}

// Verify consumes the pending state and reports whether the presented value
// matches it. The stored state is deleted regardless of the outcome, so a
// value can only ever verify once. A missing, expired or already consumed
// state yields false, not an error.
func (g *Guard) Verify(w http.ResponseWriter, r *http.Request, presented string) bool {
	stored, err := g.states.ConsumeState(w, r)
	if err != nil {
		if !errors.Is(err, core.ErrStateNotFound) {
			slog.Error("Failed to consume csrf state", "error", err)
		}
		return false
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
