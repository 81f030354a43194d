package store

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/google/uuid"
)

// MemoryStore keeps token records and CSRF states in process memory, keyed by
// a session ID cookie. It provides thread-safe storage for a single-node
// deployment and is the backend handler tests run against.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*core.TokenRecord
	states map[string]stateEntry
	secure bool
}

type stateEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore(secure bool) *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*core.TokenRecord),
		states: make(map[string]stateEntry),
		secure: secure,
	}
}

func (m *MemoryStore) session(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// ensureSession returns the session ID from the request, minting one and
// setting its cookie when the browser has none yet.
func (m *MemoryStore) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := m.session(r); ok {
		return sid
	}
	sid := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	// Make the session visible to later stores within the same request.
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid})
	return sid
}

// GetToken retrieves the token record for the request's session.
// It returns ErrTokenNotFound if the session has no record.
func (m *MemoryStore) GetToken(r *http.Request) (*core.TokenRecord, error) {
	sid, ok := m.session(r)
	if !ok {
		return nil, core.ErrTokenNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.tokens[sid]
	if !exists {
		return nil, core.ErrTokenNotFound
	}
	copied := *rec
	return &copied, nil
}

// SaveToken stores the token record for the request's session.
func (m *MemoryStore) SaveToken(w http.ResponseWriter, r *http.Request, rec *core.TokenRecord) error {
	if rec == nil {
		return core.ErrNilTokenRecord
	}
	sid := m.ensureSession(w, r)

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *rec
	m.tokens[sid] = &copied
	return nil
}

// ClearToken removes the token record for the request's session.
func (m *MemoryStore) ClearToken(_ http.ResponseWriter, r *http.Request) error {
	sid, ok := m.session(r)
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, sid)
	return nil
}

// SaveState stores the CSRF state for the request's session with a TTL.
func (m *MemoryStore) SaveState(w http.ResponseWriter, r *http.Request, value string) error {
	sid := m.ensureSession(w, r)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[sid] = stateEntry{value: value, expiresAt: time.Now().Add(stateTTL)}
	return nil
}

// ConsumeState returns the pending state and deletes it.
// It returns ErrStateNotFound if none is pending or the state expired.
func (m *MemoryStore) ConsumeState(_ http.ResponseWriter, r *http.Request) (string, error) {
	sid, ok := m.session(r)
	if !ok {
		return "", core.ErrStateNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.states[sid]
	delete(m.states, sid)
	if !exists || time.Now().After(entry.expiresAt) {
		return "", core.ErrStateNotFound
	}
	return entry.value, nil
}
