package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
)

// Authorize starts the OAuth flow: it issues a CSRF state and redirects the
// browser to the provider's authorization page.
func (h *Handler) Authorize(c *gin.Context) {
	state, err := h.guard.Issue(c.Writer, c.Request)
	if err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("Failed to initiate authorization", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}
	c.Redirect(http.StatusFound, h.cfg.AuthorizeURL(state))
}

// Callback completes the OAuth flow. Every failure path redirects back to the
// home page with an error code instead of surfacing a raw error to the
// browser; the CSRF state is consumed before any exchange is attempted.
func (h *Handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	logger := core.LoggerFromCtx(ctx)

	if errCode := c.Query("error"); errCode != "" {
		logger.Warn("Authorization denied by provider", "error", errCode)
		redirectHome(c, errCode, "")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		redirectHome(c, "missing_parameters", "")
		return
	}

	if !h.guard.Verify(c.Writer, c.Request, state) {
		logger.Warn("Callback state mismatch")
		redirectHome(c, "invalid_state", "")
		return
	}

	// The exchange and persist sequence runs to completion even if the
	// browser gives up on the redirect.
	fresh, err := h.provider.Exchange(context.WithoutCancel(ctx), code)
	if err != nil {
		logger.Error("Token exchange failed", "error", err)
		var tokenErr *netatmo.TokenError
		message := ""
		if errors.As(err, &tokenErr) {
			message = tokenErr.Message
			if message == "" {
				message = tokenErr.Code
			}
		}
		redirectHome(c, "token_exchange_failed", message)
		return
	}

	rec := &core.TokenRecord{
		AccessToken:     fresh.AccessToken,
		AccessExpiresAt: time.Now().Add(time.Duration(fresh.ExpiresIn) * time.Second),
		RefreshToken:    fresh.RefreshToken,
	}
	if err := h.tokens.SaveToken(c.Writer, c.Request, rec); err != nil {
		logger.Error("Failed to persist tokens", "error", err)
		redirectHome(c, "callback_failed", "")
		return
	}

	logger.Info("Authorization completed")
	redirectHome(c, "", "")
}

// redirectHome sends the browser back to the home page, optionally with an
// error code and a provider-supplied diagnostic message.
func redirectHome(c *gin.Context, errCode, message string) {
	target := "/"
	if errCode != "" {
		q := url.Values{}
		q.Set("error", errCode)
		if message != "" {
			q.Set("message", message)
		}
		target = "/?" + q.Encode()
	}
	c.Redirect(http.StatusFound, target)
}
