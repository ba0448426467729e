package mcp_server

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meysamhadeli/projctx/context_manager"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
)

const projectPathDescription = "Path to the project directory"

var stringItems = mcp.Items(map[string]interface{}{"type": "string"})

func getContextTool() mcp.Tool {
	return mcp.NewTool("get_context",
		mcp.WithDescription("Get comprehensive context about a project including architecture, recent changes and development status. Rescans the project when the stored snapshot is stale."),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
		mcp.WithBoolean("include_files", mcp.Description("Whether to include file structure details"), mcp.DefaultBool(true)),
	)
}

func searchKnowledgeTool() mcp.Tool {
	return mcp.NewTool("search_knowledge",
		mcp.WithDescription("Search project files, documentation, the development log and semantically similar code"),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query or question")),
		mcp.WithArray("file_types", stringItems, mcp.Description(`Restrict file matches to these extensions (e.g. ["js", "md", "json"])`)),
	)
}

func developmentStatusTool() mcp.Tool {
	return mcp.NewTool("get_development_status",
		mcp.WithDescription("Get current development status, recent changes and next steps for a project"),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
		mcp.WithNumber("days_back", mcp.Description("Number of days to look back for recent changes"), mcp.DefaultNumber(context_manager.DefaultDaysBack)),
	)
}

func updateContextTool() mcp.Tool {
	return mcp.NewTool("update_context",
		mcp.WithDescription("Add a note, decision, status, todo or completion to the project's development log"),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
		mcp.WithString("update_type",
			mcp.Required(),
			mcp.Enum(
				string(storagemodels.UpdateNote),
				string(storagemodels.UpdateDecision),
				string(storagemodels.UpdateStatus),
				string(storagemodels.UpdateTodo),
				string(storagemodels.UpdateCompletion),
			),
			mcp.Description("Type of update to make"),
		),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to add")),
		mcp.WithArray("tags", stringItems, mcp.Description("Tags to associate with this update")),
		mcp.WithString("todo_id", mcp.Description("For completions: id of the todo this completes")),
	)
}

func scanProjectTool() mcp.Tool {
	return mcp.NewTool("scan_project",
		mcp.WithDescription("Scan the project to refresh its file structure, analysis and semantic index"),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
		mcp.WithBoolean("force_refresh", mcp.Description("Bypass the analysis cache and rebuild the semantic index"), mcp.DefaultBool(false)),
	)
}

func listProjectsTool() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List every project with stored context, most recently accessed first"),
	)
}

func watchProjectTool() mcp.Tool {
	return mcp.NewTool("watch_project",
		mcp.WithDescription("Watch a project for file changes, recording them and rescanning on significant changes"),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
	)
}

func unwatchProjectTool() mcp.Tool {
	return mcp.NewTool("unwatch_project",
		mcp.WithDescription("Stop watching a project"),
		mcp.WithString("project_path", mcp.Required(), mcp.Description(projectPathDescription)),
	)
}

func watcherStatusTool() mcp.Tool {
	return mcp.NewTool("watcher_status",
		mcp.WithDescription("Report the watch session of a project, or statistics over all sessions when no path is given"),
		mcp.WithString("project_path", mcp.Description(projectPathDescription)),
	)
}

func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	formatted, err := s.projects.GetContext(ctx, projectPath, request.GetBool("include_files", true))
	if err != nil {
		return errorResult("get_context", err), nil
	}
	return jsonResult(formatted)
}

func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.projects.Search(ctx, projectPath, query, request.GetStringSlice("file_types", nil))
	if err != nil {
		return errorResult("search_knowledge", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleDevelopmentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	daysBack := int(request.GetFloat("days_back", context_manager.DefaultDaysBack))
	status, err := s.projects.GetDevelopmentStatus(ctx, projectPath, daysBack)
	if err != nil {
		return errorResult("get_development_status", err), nil
	}
	return jsonResult(status)
}

func (s *Server) handleUpdateContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updateType, err := request.RequireString("update_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.projects.UpdateContext(ctx, projectPath, storagemodels.Update{
		Type:    storagemodels.UpdateType(strings.ToLower(strings.TrimSpace(updateType))),
		Content: content,
		Tags:    request.GetStringSlice("tags", nil),
		TodoID:  request.GetString("todo_id", ""),
	})
	if err != nil {
		return errorResult("update_context", err), nil
	}
	return jsonResult(map[string]interface{}{
		"success": true,
		"update":  entry,
	})
}

func (s *Server) handleScanProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.projects.ScanProject(ctx, projectPath, request.GetBool("force_refresh", false))
	if err != nil {
		return errorResult("scan_project", err), nil
	}
	return jsonResult(map[string]interface{}{
		"success":        true,
		"scanned_files":  summary.FileCount,
		"directories":    summary.DirectoryCount,
		"indexed_chunks": summary.IndexedChunks,
		"duration_ms":    summary.DurationMs,
		"last_updated":   summary.ScannedAt,
	})
}

func (s *Server) handleListProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return errorResult("list_projects", err), nil
	}
	return jsonResult(map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
	})
}

func (s *Server) handleWatchProject(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status, err := s.watcher.StartWatching(projectPath)
	if err != nil {
		return errorResult("watch_project", err), nil
	}
	return jsonResult(status)
}

func (s *Server) handleUnwatchProject(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.watcher.StopWatching(projectPath); err != nil {
		return errorResult("unwatch_project", err), nil
	}
	return jsonResult(map[string]interface{}{
		"success":      true,
		"project_path": projectPath,
	})
}

func (s *Server) handleWatcherStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath := request.GetString("project_path", "")
	if projectPath == "" {
		return jsonResult(s.watcher.Statistics())
	}

	status, err := s.watcher.Status(projectPath)
	if err != nil {
		return errorResult("watcher_status", err), nil
	}
	return jsonResult(status)
}
