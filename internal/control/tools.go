package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/serverhost-go/internal/session"
)

// Tool names.
const (
	ToolSessionState = "session_state"
	ToolSessionStart = "session_start"
	ToolSessionStop  = "session_stop"
)

// DefaultName is the MCP implementation name of the control server.
const DefaultName = "serverhost"

// Controller is the session surface the control tools drive.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) session.Status
}

// NewSessionServer creates a server with the session control tools
// registered against ctrl.
func NewSessionServer(log *slog.Logger, version string, ctrl Controller) *Server {
	s := NewServer(log, DefaultName, version)

	s.AddTool(
		NewTool(ToolSessionState, "Report the server session state, endpoint and process diagnostics.", ObjectSchema(nil)),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return statusResult(ctx, ctrl)
		},
	)

	s.AddTool(
		NewTool(ToolSessionStart, "Launch the server and wait until it connects.", timeoutSchema()),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, cancel, err := withTimeoutArgument(ctx, req)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			defer cancel()

			if err := ctrl.Start(ctx); err != nil {
				return ErrorResult("start failed: " + err.Error()), nil
			}

			return statusResult(ctx, ctrl)
		},
	)

	s.AddTool(
		NewTool(ToolSessionStop, "Stop the server session and terminate the server process.", timeoutSchema()),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, cancel, err := withTimeoutArgument(ctx, req)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			defer cancel()

			if err := ctrl.Stop(ctx); err != nil {
				return ErrorResult("stop failed: " + err.Error()), nil
			}

			return statusResult(ctx, ctrl)
		},
	)

	return s
}

func timeoutSchema() *jsonschema.Schema {
	return ObjectSchema(map[string]*jsonschema.Schema{
		"timeout": {
			Type:        "string",
			Description: "Optional Go duration bounding the operation, e.g. \"30s\".",
		},
	})
}

// withTimeoutArgument applies the optional "timeout" argument to ctx.
func withTimeoutArgument(ctx context.Context, req *mcp.CallToolRequest) (context.Context, context.CancelFunc, error) {
	args, err := ParseArguments(req)
	if err != nil {
		return nil, nil, err
	}

	raw, ok := args["timeout"]
	if !ok {
		ctx, cancel := context.WithCancel(ctx)

		return ctx, cancel, nil
	}

	str, ok := raw.(string)
	if !ok {
		return nil, nil, fmt.Errorf("timeout must be a duration string, got %T", raw)
	}

	d, err := time.ParseDuration(str)
	if err != nil {
		return nil, nil, fmt.Errorf("parse timeout: %w", err)
	}

	if d <= 0 {
		return nil, nil, fmt.Errorf("timeout must be positive, got %s", d)
	}

	ctx, cancel := context.WithTimeout(ctx, d)

	return ctx, cancel, nil
}

func statusResult(ctx context.Context, ctrl Controller) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(ctrl.Status(ctx))
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}

	return TextResult(string(data)), nil
}
