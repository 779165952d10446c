// Package mcpserver exposes discovery as a Model Context Protocol tool over stdio,
// so an assistant can ask for server recommendations from inside an editor session.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/pipeline"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// ToolName is the name of the discovery tool
const ToolName = "discover_servers"

// Server wraps an mcp-go server with the discovery tool registered
type Server struct {
	pipeline   *pipeline.Pipeline
	logger     *log.Logger
	synthesize bool
	mcpServer  *server.MCPServer
}

// NewServer creates the MCP server. synthesize is the default when a call does not say.
func NewServer(p *pipeline.Pipeline, name, version string, synthesize bool, logger *log.Logger) *Server {
	s := &Server{
		pipeline:   p,
		logger:     logging.OrDiscard(logger),
		synthesize: synthesize,
	}

	s.mcpServer = server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.mcpServer.AddTool(discoverTool(), s.handleDiscover)

	return s
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve speaks JSON-RPC over in/out until ctx is cancelled or in is closed
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	s.logger.Info("mcp server listening on stdio", "tool", ToolName)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	return nil
}

func discoverTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Recommend MCP servers for a software project. "+
			"Pass what the project needs and, optionally, project files such as a spec or package manifest."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("What the project is and what the assistant should be able to do"),
		),
		mcp.WithObject("files",
			mcp.Description("Project files keyed by filename, with text content as values"),
		),
		mcp.WithBoolean("synthesize",
			mcp.Description("Write a detailed setup note for each recommendation (slower)"),
		),
	)
}

// handleDiscover runs the pipeline. Caller mistakes come back as tool errors, not protocol errors.
func (s *Server) handleDiscover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := fileArguments(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pipeline.Run(ctx, pipeline.Input{Prompt: prompt, Files: files}, pipeline.Options{
		Synthesize: request.GetBool("synthesize", s.synthesize),
	})
	if err != nil {
		if pipeline.IsInvalidInput(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Error("discovery tool call failed", "error", err)
		return nil, err
	}

	data, err := json.MarshalIndent(result.Response(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendations: %w", err)
	}

	s.logger.Debug("discovery tool call completed",
		"request_id", result.RequestID,
		"recommendations", len(result.Recommendations))
	return mcp.NewToolResultText(string(data)), nil
}

// fileArguments reads the optional "files" object in filename order
func fileArguments(args map[string]any) ([]types.File, error) {
	raw, ok := args["files"]
	if !ok || raw == nil {
		return nil, nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &types.InvalidInputError{Field: "files", Message: "must be an object of filename to content"}
	}

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]types.File, 0, len(names))
	for _, name := range names {
		content, ok := obj[name].(string)
		if !ok {
			return nil, &types.InvalidInputError{Field: "files." + name, Message: "content must be a string"}
		}
		files = append(files, types.File{Name: name, Content: content, Kind: types.KindAuto})
	}
	return files, nil
}
