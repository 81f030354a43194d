package store

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

const (
	// Key prefixes for Redis storage
	tokenPrefix = "token:"
	statePrefix = "state:"
)

// RedisStore keeps token records and CSRF states in Redis via rueidis, keyed
// by a session ID cookie. Tokens expire with the refresh token lifetime,
// states after ten minutes; Redis TTLs enforce both.
type RedisStore struct {
	client rueidis.Client
	secure bool
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client, secure bool) *RedisStore {
	return &RedisStore{
		client: client,
		secure: secure,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions, secure bool) (*RedisStore, error) {
	clientOpts := rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}
	client, err := rueidis.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client, secure), nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() {
	s.client.Close()
}

func (s *RedisStore) session(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *RedisStore) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := s.session(r); ok {
		return sid
	}
	sid := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid})
	return sid
}

// GetToken retrieves the token record for the request's session.
// It returns ErrTokenNotFound if the session has no record or it expired.
func (s *RedisStore) GetToken(r *http.Request) (*core.TokenRecord, error) {
	sid, ok := s.session(r)
	if !ok {
		return nil, core.ErrTokenNotFound
	}

	ctx := r.Context()
	cmd := s.client.B().Get().Key(tokenPrefix + sid).Build()
	result, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, core.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token record from redis: %w", err)
	}

	var rec core.TokenRecord
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}
	return &rec, nil
}

// SaveToken stores the token record for the request's session with the
// refresh token lifetime as TTL.
func (s *RedisStore) SaveToken(w http.ResponseWriter, r *http.Request, rec *core.TokenRecord) error {
	if rec == nil {
		return core.ErrNilTokenRecord
	}
	sid := s.ensureSession(w, r)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	ctx := r.Context()
	cmd := s.client.B().Set().Key(tokenPrefix + sid).Value(string(data)).
		ExSeconds(int64(refreshTTL.Seconds())).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save token record to redis: %w", err)
	}
	return nil
}

// ClearToken removes the token record for the request's session.
func (s *RedisStore) ClearToken(_ http.ResponseWriter, r *http.Request) error {
	sid, ok := s.session(r)
	if !ok {
		return nil
	}

	ctx := r.Context()
	cmd := s.client.B().Del().Key(tokenPrefix + sid).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete token record from redis: %w", err)
	}
	return nil
}

// SaveState stores the CSRF state for the request's session with TTL.
func (s *RedisStore) SaveState(w http.ResponseWriter, r *http.Request, value string) error {
	sid := s.ensureSession(w, r)

	ctx := r.Context()
	cmd := s.client.B().Set().Key(statePrefix + sid).Value(value).
		ExSeconds(int64(stateTTL.Seconds())).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// ConsumeState atomically returns and deletes the pending state via GETDEL.
// It returns ErrStateNotFound if none is pending or the state expired.
func (s *RedisStore) ConsumeState(_ http.ResponseWriter, r *http.Request) (string, error) {
	sid, ok := s.session(r)
	if !ok {
		return "", core.ErrStateNotFound
	}

	ctx := r.Context()
	cmd := s.client.B().Getdel().Key(statePrefix + sid).Build()
	value, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", core.ErrStateNotFound
		}
		return "", fmt.Errorf("failed to consume state from redis: %w", err)
	}
	return value, nil
}

var (
	_ core.SessionStore = (*CookieStore)(nil)
	_ core.SessionStore = (*MemoryStore)(nil)
	_ core.SessionStore = (*RedisStore)(nil)
)
