// Package mcp_server exposes the project context operations as MCP tools over stdio.
package mcp_server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	cmmodels "github.com/meysamhadeli/projctx/context_manager/models"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/file_watcher"
	"github.com/meysamhadeli/projctx/logging"
	"go.uber.org/zap"
)

const serverName = "projctx"

// ProjectContext is the context manager as seen by the tools.
type ProjectContext interface {
	GetContext(ctx context.Context, projectPath string, includeFiles bool) (*cmmodels.FormattedContext, error)
	Search(ctx context.Context, projectPath string, query string, fileTypes []string) (*cmmodels.SearchResult, error)
	GetDevelopmentStatus(ctx context.Context, projectPath string, daysBack int) (*cmmodels.DevelopmentStatus, error)
	UpdateContext(ctx context.Context, projectPath string, update storagemodels.Update) (*storagemodels.LogEntry, error)
	ScanProject(ctx context.Context, projectPath string, forceRefresh bool) (*cmmodels.ScanSummary, error)
	ListProjects(ctx context.Context) ([]storagemodels.ProjectSummary, error)
}

// Watcher is the file watcher as seen by the tools.
type Watcher interface {
	StartWatching(projectPath string) (file_watcher.SessionStatus, error)
	StopWatching(projectPath string) error
	Status(projectPath string) (file_watcher.SessionStatus, error)
	Statistics() file_watcher.Statistics
}

// Server owns the MCP server and the tool handlers.
type Server struct {
	mcp      *server.MCPServer
	projects ProjectContext
	watcher  Watcher
}

// NewServer registers every tool. watcher may be nil, in which case the
// watch tools are not offered.
func NewServer(projects ProjectContext, watcher Watcher, version string) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		projects: projects,
		watcher:  watcher,
	}

	s.mcp.AddTool(getContextTool(), s.handleGetContext)
	s.mcp.AddTool(searchKnowledgeTool(), s.handleSearchKnowledge)
	s.mcp.AddTool(developmentStatusTool(), s.handleDevelopmentStatus)
	s.mcp.AddTool(updateContextTool(), s.handleUpdateContext)
	s.mcp.AddTool(scanProjectTool(), s.handleScanProject)
	s.mcp.AddTool(listProjectsTool(), s.handleListProjects)

	if watcher != nil {
		s.mcp.AddTool(watchProjectTool(), s.handleWatchProject)
		s.mcp.AddTool(unwatchProjectTool(), s.handleUnwatchProject)
		s.mcp.AddTool(watcherStatusTool(), s.handleWatcherStatus)
	}
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over the given streams until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	logging.Info("MCP server listening on stdio", zap.String("name", serverName))
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, stdin, stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports a failed call to the client without failing the request.
func errorResult(tool string, err error) *mcp.CallToolResult {
	logging.Warn("tool call failed", zap.String("tool", tool), logging.Err(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}
