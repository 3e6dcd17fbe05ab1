package mcp

import (
	"context"
	"fmt"

	"aura/internal/assist"
	"aura/internal/dispatch"
	"aura/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Server bridges the tool catalog and dispatcher onto the official MCP
// SDK, so MCP-speaking orchestrators (Claude Desktop and friends) get
// the same tools the native protocol exposes.
type Server struct {
	engine *assist.Engine
	server *mcp.Server
	log    *zap.Logger
}

// NewServer builds the bridge, advertising every catalog tool with its
// generated JSON Schema.
func NewServer(engine *assist.Engine, log *zap.Logger) *Server {
	impl := &mcp.Implementation{
		Name:    "aura-command-core",
		Version: "1.0.0",
	}
	server := mcp.NewServer(impl, nil)

	s := &Server{engine: engine, server: server, log: log}
	for _, def := range engine.Registry().All() {
		s.addTool(def)
	}
	return s
}

func (s *Server) addTool(def *tool.Definition) {
	name := def.Name
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        string(name),
		Description: def.Description,
		InputSchema: tool.Schema(def),
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		if args == nil {
			args = map[string]any{}
		}
		result, err := s.engine.Call(ctx, name, args, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("call tool %s: %w", name, err)
		}
		return toCallResult(result), nil, nil
	})
}

// Run serves MCP over stdio until the peer disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp bridge listening on stdio")
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// toCallResult converts the normalized result into MCP content. IsError
// mirrors Success so orchestrators branch the same way native callers
// do.
func toCallResult(r *dispatch.Result) *mcp.CallToolResult {
	text := r.Message
	if !r.Success {
		text = r.Error
		if len(r.Suggestions) > 0 {
			text += "\n" + r.Suggestions[0].Message
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: !r.Success,
	}
}
