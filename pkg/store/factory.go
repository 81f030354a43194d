package store

import (
	"fmt"
	"strings"

	"github.com/go-training/netatmo-dashboard/pkg/core"
)

// StoreType represents the type of session store backend.
type StoreType string

const (
	// StoreTypeCookie round-trips tokens through httpOnly cookies (default).
	StoreTypeCookie StoreType = "cookie"
	// StoreTypeMemory represents in-memory storage keyed by session cookie.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeRedis represents Redis storage keyed by session cookie.
	StoreTypeRedis StoreType = "redis"
)

// Config contains configuration for creating a session store.
type Config struct {
	// Type specifies the store type (cookie, memory or redis).
	Type StoreType
	// Secure controls the Secure attribute of every cookie the store sets.
	Secure bool
	// Redis contains Redis-specific configuration.
	Redis RedisOptions
}

// Factory creates store instances based on configuration.
type Factory struct {
	config Config
}

// NewFactory creates a new store factory with the provided configuration.
func NewFactory(config Config) *Factory {
	return &Factory{
		config: config,
	}
}

// Create creates and returns a new session store based on the factory
// configuration. Returns an error if the store type is invalid or if store
// creation fails.
func (f *Factory) Create() (core.SessionStore, error) {
	switch f.config.Type {
	case StoreTypeCookie:
		return NewCookieStore(f.config.Secure), nil
	case StoreTypeMemory:
		return NewMemoryStore(f.config.Secure), nil
	case StoreTypeRedis:
		return NewRedisStoreFromOptions(f.config.Redis, f.config.Secure)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", f.config.Type)
	}
}

// NewStore is a convenience function that creates a store directly from configuration.
// It's equivalent to NewFactory(config).Create().
func NewStore(config Config) (core.SessionStore, error) {
	factory := NewFactory(config)
	return factory.Create()
}

// ParseStoreType parses a string into a StoreType.
// Returns StoreTypeCookie for invalid inputs.
func ParseStoreType(s string) StoreType {
	switch strings.ToLower(s) {
	case "cookie":
		return StoreTypeCookie
	case "memory":
		return StoreTypeMemory
	case "redis":
		return StoreTypeRedis
	default:
		return StoreTypeCookie
	}
}

// String returns the string representation of a StoreType.
func (t StoreType) String() string {
	return string(t)
}

// IsValid returns true if the StoreType is valid.
func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeCookie, StoreTypeMemory, StoreTypeRedis:
		return true
	default:
		return false
	}
}

// DefaultConfig returns the default store configuration (cookie store).
func DefaultConfig() Config {
	return Config{
		Type: StoreTypeCookie,
	}
}
