// Package weather provides MCP tools for reading Netatmo station data.
package weather

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StationSource fetches station readings with a bearer token.
type StationSource interface {
	StationsData(ctx context.Context, accessToken string) (*netatmo.StationsData, error)
}

// GetStationsDataTool defines the MCP tool for fetching station readings.
var GetStationsDataTool = mcp.NewTool("get_stations_data",
	mcp.WithDescription("Fetch the latest readings of all Netatmo weather stations visible to the authenticated user, as JSON."),
)

// ShowAuthTokenTool defines the MCP tool for displaying the current auth token.
var ShowAuthTokenTool = mcp.NewTool("show_auth_token",
	mcp.WithDescription("Show the current authentication token"),
)

// HandleGetStationsDataTool returns an MCP tool handler that fetches station
// data using the bearer token from the request context.
func HandleGetStationsDataTool(source StationSource) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := core.LoggerFromCtx(ctx)
		logger.Info("Handling get_stations_data tool")

		token, err := core.BearerFromContext(ctx)
		if err != nil {
			logger.Error("Missing token", "error", err)
			return nil, fmt.Errorf("missing token: %v", err)
		}

		data, err := source.StationsData(ctx, token)
		if err != nil {
			logger.Error("Stations data fetch failed", "error", err)
			return nil, err
		}

		payload, err := json.Marshal(data)
		if err != nil {
			logger.Error("Failed to marshal stations data", "error", err)
			return nil, err
		}

		logger.Info("Successfully fetched stations data", "devices", len(data.Body.Devices))
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// HandleShowAuthTokenTool is an MCP tool handler that returns the current
// auth token from context as a masked string.
func HandleShowAuthTokenTool(
	ctx context.Context,
	_ mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	token, err := core.TokenFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("missing token: %v", err)
	}
	// Mask the token: show only the edges, hide the middle for security
	masked := token
	if len(token) > 8 {
		masked = token[:6] + "****" + token[len(token)-2:]
	} else if len(token) > 0 {
		masked = "****"
	}
	return mcp.NewToolResultText(masked), nil
}
