package netatmo

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NETATMO_CLIENT_ID", "test-client")
	t.Setenv("NETATMO_CLIENT_SECRET", "test-secret")
	t.Setenv("NETATMO_REDIRECT_URI", "https://example.com/api/auth/netatmo/callback")
	t.Setenv("NETATMO_API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_NETATMO_CLIENT_ID", "")
}

func TestConfigFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.ClientID != "test-client" {
		t.Errorf("Expected client ID test-client, got %s", cfg.ClientID)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Errorf("Expected default API base URL %s, got %s", defaultAPIBaseURL, cfg.APIBaseURL)
	}
}

func TestConfigFromEnv_ClientIDFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NETATMO_CLIENT_ID", "")
	t.Setenv("NEXT_PUBLIC_NETATMO_CLIENT_ID", "public-client")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.ClientID != "public-client" {
		t.Errorf("Expected fallback client ID public-client, got %s", cfg.ClientID)
	}
}

func TestConfigFromEnv_MissingValues(t *testing.T) {
	t.Setenv("NETATMO_CLIENT_ID", "")
	t.Setenv("NEXT_PUBLIC_NETATMO_CLIENT_ID", "")
	t.Setenv("NETATMO_CLIENT_SECRET", "")
	t.Setenv("NETATMO_REDIRECT_URI", "")

	_, err := ConfigFromEnv()
	if err == nil {
		t.Fatal("Expected error for missing environment variables")
	}

	// All missing variables are reported at once
	for _, name := range []string{"NETATMO_CLIENT_ID", "NETATMO_CLIENT_SECRET", "NETATMO_REDIRECT_URI"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Error missing variable name %q. Full error: %v", name, err)
		}
	}
}

func TestConfigFromEnv_TrimsBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NETATMO_API_BASE_URL", "https://api.example.com/")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.TokenURL() != "https://api.example.com/oauth2/token" {
		t.Errorf("Unexpected token URL: %s", cfg.TokenURL())
	}
	if cfg.StationsDataURL() != "https://api.example.com/api/getstationsdata" {
		t.Errorf("Unexpected stations data URL: %s", cfg.StationsDataURL())
	}
}

func TestConfig_AuthorizeURL(t *testing.T) {
	cfg := Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "https://example.com/callback",
		APIBaseURL:   "https://api.example.com",
	}

	url := cfg.AuthorizeURL("test-state")

	// Check that URL contains expected components
	expectedParts := []string{
		"https://api.example.com/oauth2/authorize",
		"client_id=test-client",
		"state=test-state",
		"response_type=code",
		"scope=read_station",
		"redirect_uri=https%3A%2F%2Fexample.com%2Fcallback",
	}
	for _, part := range expectedParts {
		if !strings.Contains(url, part) {
			t.Errorf("URL missing expected part %q. Full URL: %s", part, url)
		}
	}
}
