package netatmo

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

const (
	defaultAPIBaseURL = "https://api.netatmo.com"

	// Stations are read-only; this is the only scope the dashboard needs.
	scopeReadStation = "read_station"
)

// Config holds the OAuth client credentials and endpoint URLs. It is resolved
// once at process start and passed by value into every component that needs
// it; no component reads the environment after startup.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIBaseURL   string
}

// ConfigFromEnv resolves the configuration from environment variables.
// NETATMO_CLIENT_ID (falling back to NEXT_PUBLIC_NETATMO_CLIENT_ID),
// NETATMO_CLIENT_SECRET and NETATMO_REDIRECT_URI are required;
// NETATMO_API_BASE_URL defaults to the public Netatmo API. All missing
// variables are reported in a single error so the operator can fix them in
// one pass.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ClientID:     firstEnv("NETATMO_CLIENT_ID", "NEXT_PUBLIC_NETATMO_CLIENT_ID"),
		ClientSecret: os.Getenv("NETATMO_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("NETATMO_REDIRECT_URI"),
		APIBaseURL:   strings.TrimRight(os.Getenv("NETATMO_API_BASE_URL"), "/"),
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}

	var missing []string
	if cfg.ClientID == "" {
		missing = append(missing, "NETATMO_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "NETATMO_CLIENT_SECRET")
	}
	if cfg.RedirectURI == "" {
		missing = append(missing, "NETATMO_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// oauth2Config maps the Netatmo endpoints onto a standard oauth2.Config.
func (c Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       []string{scopeReadStation},
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.APIBaseURL + "/oauth2/authorize",
			TokenURL: c.APIBaseURL + "/oauth2/token",
		},
	}
}

// AuthorizeURL builds the provider authorization URL with the given CSRF
// state embedded.
func (c Config) AuthorizeURL(state string) string {
	return c.oauth2Config().AuthCodeURL(state)
}

// TokenURL returns the token endpoint used for code exchange and refresh.
func (c Config) TokenURL() string {
	return c.APIBaseURL + "/oauth2/token"
}

// StationsDataURL returns the station data endpoint.
func (c Config) StationsDataURL() string {
	return c.APIBaseURL + "/api/getstationsdata"
}
