package operation

import (
	"github.com/go-training/netatmo-dashboard/pkg/operation/weather"

	"github.com/mark3labs/mcp-go/server"
)

// RegisterWeatherTool registers the weather tools to the specified MCPServer
// instance. The tools authenticate with the bearer token passed through the
// request context, so MCP clients supply their own Netatmo access token.
func RegisterWeatherTool(s *server.MCPServer, source weather.StationSource) {
	tool := &Tool{}

	tool.RegisterRead(server.ServerTool{
		Tool:    weather.GetStationsDataTool,
		Handler: weather.HandleGetStationsDataTool(source),
	})
	tool.RegisterRead(server.ServerTool{
		Tool:    weather.ShowAuthTokenTool,
		Handler: weather.HandleShowAuthTokenTool,
	})

	s.AddTools(tool.Tools()...)
}

// Tool manages collections of tools to be registered with an MCPServer,
// grouped into read and write operations.
type Tool struct {
	write []server.ServerTool
	read  []server.ServerTool
}

// RegisterWrite registers a ServerTool as a write operation.
func (t *Tool) RegisterWrite(s server.ServerTool) {
	t.write = append(t.write, s)
}

// RegisterRead registers a ServerTool as a read operation.
func (t *Tool) RegisterRead(s server.ServerTool) {
	t.read = append(t.read, s)
}

// Tools returns all registered ServerTools, write tools first followed by
// read tools, for batch registration to the MCPServer.
func (t *Tool) Tools() []server.ServerTool {
	tools := make([]server.ServerTool, 0, len(t.write)+len(t.read))
	tools = append(tools, t.write...)
	tools = append(tools, t.read...)
	return tools
}
