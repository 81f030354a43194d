// Package handler wires the dashboard's HTTP surface: the OAuth
// authorization flow, the weather data gateway, and a few small auxiliary
// endpoints.
package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/csrf"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
	"github.com/go-training/netatmo-dashboard/pkg/token"
)

// Provider is the outbound side of the dashboard: code exchange during the
// authorization flow and station data fetches. *netatmo.Client implements it.
type Provider interface {
	Exchange(ctx context.Context, code string) (*netatmo.Token, error)
	StationsData(ctx context.Context, accessToken string) (*netatmo.StationsData, error)
}

// Handler holds the collaborators shared by all HTTP handlers.
type Handler struct {
	cfg      netatmo.Config
	provider Provider
	manager  *token.Manager
	guard    *csrf.Guard
	tokens   core.TokenStore
}

// New creates a Handler.
func New(cfg netatmo.Config, provider Provider, manager *token.Manager, guard *csrf.Guard, tokens core.TokenStore) *Handler {
	return &Handler{
		cfg:      cfg,
		provider: provider,
		manager:  manager,
		guard:    guard,
		tokens:   tokens,
	}
}

// RegisterRoutes registers all dashboard routes on the router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", h.Home)
	router.GET("/healthz", h.Healthz)
	router.GET("/api/auth/netatmo", h.Authorize)
	router.GET("/api/auth/netatmo/callback", h.Callback)
	router.GET("/api/auth/status", h.Status)
	router.POST("/api/auth/logout", h.Logout)
	router.GET("/api/weather", h.Weather)
}

// RequestID attaches a request ID to the request context so handler logs can
// be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(core.WithRequestID(c.Request.Context()))
		c.Next()
	}
}

// Healthz reports process liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports whether the session currently holds (or can refresh to) a
// valid access token.
func (h *Handler) Status(c *gin.Context) {
	_, ok := h.manager.ValidAccessToken(c.Request.Context(), c.Writer, c.Request)
	c.JSON(http.StatusOK, gin.H{"authenticated": ok})
}

// Logout clears the stored credentials for the session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.tokens.ClearToken(c.Writer, c.Request); err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("Failed to clear token record", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}
	c.Status(http.StatusNoContent)
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Netatmo Weather Dashboard</title></head>
<body>
<h1>Netatmo Weather Dashboard</h1>
{{if .Error}}<p class="error">Sign-in failed: {{.Error}}{{if .Message}} ({{.Message}}){{end}}</p>{{end}}
<p><a href="/api/auth/netatmo">Sign in with Netatmo</a></p>
<p><a href="/api/weather">Station data (JSON)</a></p>
</body>
</html>
`))

// Home serves a minimal shell page. It doubles as the redirect target of the
// OAuth callback and echoes its error parameters; the actual dashboard UI is
// rendered by the frontend.
func (h *Handler) Home(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := homeTemplate.Execute(c.Writer, map[string]string{
		"Error":   c.Query("error"),
		"Message": c.Query("message"),
	})
	if err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("Failed to render home page", "error", err)
	}
}
