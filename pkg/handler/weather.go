package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
)

const (
	msgNotAuthenticated = "Not authenticated. Please sign in again."
	msgTokenRejected    = "Access token invalid or expired. Please sign in again."
	msgUpstreamFailed   = "Failed to fetch weather data"
	msgInternalError    = "Internal server error while fetching weather data"
)

// Weather is the weather data gateway. It asks the token manager first and
// short-circuits to 401 without any upstream call when the session is
// unauthenticated; upstream and transport failures map to typed JSON errors.
func (h *Handler) Weather(c *gin.Context) {
	ctx := c.Request.Context()
	logger := core.LoggerFromCtx(ctx)

	accessToken, ok := h.manager.ValidAccessToken(ctx, c.Writer, c.Request)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}

	data, err := h.provider.StationsData(ctx, accessToken)
	if err != nil {
		var apiErr *netatmo.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
			// Token passed local validity checks but the provider rejected
			// it, e.g. revoked server-side.
			logger.Warn("Upstream rejected access token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgTokenRejected})
		case errors.As(err, &apiErr):
			logger.Error("Netatmo API error", "error", err)
			status := apiErr.StatusCode
			if status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
			message := apiErr.Message
			if message == "" {
				message = msgUpstreamFailed
			}
			c.JSON(status, gin.H{"error": message})
		default:
			logger.Error("Weather request failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
		}
		return
	}

	core.AddRequestAttributes(ctx,
		attribute.Int("weather.devices", len(data.Body.Devices)),
	)
	c.JSON(http.StatusOK, data)
}
