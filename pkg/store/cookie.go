package store

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-training/netatmo-dashboard/pkg/core"
)

const (
	accessTokenCookie   = "netatmo-access-token"
	accessExpiresCookie = "netatmo-access-token-expires"
	refreshTokenCookie  = "netatmo-refresh-token"
	stateCookie         = "netatmo-state"
	sessionCookie       = "netatmo-session"

	stateTTL   = 10 * time.Minute
	refreshTTL = 30 * 24 * time.Hour
)

// CookieStore persists the token record and CSRF state directly in httpOnly
// cookies, so the browser itself carries the session and the server stays
// stateless. Values are URL-escaped because Netatmo tokens contain characters
// that are not valid in cookie values.
type CookieStore struct {
	secure bool
}

// NewCookieStore creates a cookie-backed session store. secure controls the
// Secure cookie attribute and should be true behind HTTPS.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

func (s *CookieStore) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *CookieStore) delete(w http.ResponseWriter, name string) {
	s.set(w, name, "", -1)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	value, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return value
}

// GetToken rebuilds the token record from the token cookies. A session that
// still holds a refresh token but lost its access token cookie (it expires
// with the token) yields a record with an empty access token.
func (s *CookieStore) GetToken(r *http.Request) (*core.TokenRecord, error) {
	access := cookieValue(r, accessTokenCookie)
	refresh := cookieValue(r, refreshTokenCookie)
	if access == "" && refresh == "" {
		return nil, core.ErrTokenNotFound
	}

	rec := &core.TokenRecord{
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if raw := cookieValue(r, accessExpiresCookie); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.AccessExpiresAt = time.UnixMilli(ms)
		}
	}
	return rec, nil
}

// SaveToken writes the record back to cookies. The access token cookie lives
// exactly as long as the token itself; the refresh token cookie for 30 days.
func (s *CookieStore) SaveToken(w http.ResponseWriter, _ *http.Request, rec *core.TokenRecord) error {
	if rec == nil {
		return core.ErrNilTokenRecord
	}

	if maxAge := int(time.Until(rec.AccessExpiresAt).Seconds()); maxAge > 0 && rec.AccessToken != "" {
		s.set(w, accessTokenCookie, rec.AccessToken, maxAge)
		s.set(w, accessExpiresCookie, strconv.FormatInt(rec.AccessExpiresAt.UnixMilli(), 10), maxAge)
	}
	if rec.RefreshToken != "" {
		s.set(w, refreshTokenCookie, rec.RefreshToken, int(refreshTTL.Seconds()))
	}
	return nil
}

// ClearToken expires all token cookies.
func (s *CookieStore) ClearToken(w http.ResponseWriter, _ *http.Request) error {
	s.delete(w, accessTokenCookie)
	s.delete(w, accessExpiresCookie)
	s.delete(w, refreshTokenCookie)
	return nil
}

// SaveState stores the CSRF state in a short-lived cookie.
func (s *CookieStore) SaveState(w http.ResponseWriter, _ *http.Request, value string) error {
	s.set(w, stateCookie, value, int(stateTTL.Seconds()))
	return nil
}

// ConsumeState returns the pending state and expires its cookie in the same
// response, making the value single-use for any client that honors Set-Cookie.
func (s *CookieStore) ConsumeState(w http.ResponseWriter, r *http.Request) (string, error) {
	value := cookieValue(r, stateCookie)
	s.delete(w, stateCookie)
	if value == "" {
		return "", core.ErrStateNotFound
	}
	return value, nil
}
