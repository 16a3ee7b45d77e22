package serverhost

import (
	"log/slog"

	"github.com/wagiedev/serverhost-go/internal/control"
)

// ControlServer exposes a client's session lifecycle as MCP tools:
// session_state, session_start and session_stop.
//
// Tools can be called directly with CallTool, or served to an MCP client
// through MCPServer:
//
//	ctrl := serverhost.NewControlServer(client, "1.0.0", log)
//	if err := ctrl.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
//	    log.Error("control server stopped", "error", err)
//	}
type ControlServer = control.Server

// Control tool names.
const (
	ToolSessionState = control.ToolSessionState
	ToolSessionStart = control.ToolSessionStart
	ToolSessionStop  = control.ToolSessionStop
)

// NewControlServer creates a control server bound to client.
// A nil logger disables logging.
func NewControlServer(client Client, version string, log *slog.Logger) *ControlServer {
	return control.NewSessionServer(log, version, client)
}
