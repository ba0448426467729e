package context_manager

import (
	"context"
	"sort"
	"time"

	"github.com/meysamhadeli/projctx/context_manager/models"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
)

const (
	recentActivityLimit = 10
	nextStepsLimit      = 5
	noCurrentFocus      = "No current focus set"
)

// GetDevelopmentStatus summarises the last daysBack days of a project. A
// non-positive daysBack means DefaultDaysBack.
func (m *ContextManager) GetDevelopmentStatus(_ context.Context, projectPath string, daysBack int) (*models.DevelopmentStatus, error) {
	root, err := resolve(projectPath)
	if err != nil {
		return nil, err
	}
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}

	document, err := m.storage.Load(root)
	if err != nil {
		return nil, err
	}

	now := m.now()
	cutoff := now.AddDate(0, 0, -daysBack)
	development := document.Development

	status := &models.DevelopmentStatus{
		ProjectName:   document.Project.Name,
		CurrentStatus: development.Status,
		CurrentFocus:  development.CurrentFocus,
		DaysBack:      daysBack,
	}
	if status.CurrentStatus == "" {
		status.CurrentStatus = "unknown"
	}
	if status.CurrentFocus == "" {
		status.CurrentFocus = noCurrentFocus
	}

	status.RecentActivity = newestFirst(since(development.Updates, cutoff))
	if len(status.RecentActivity) > recentActivityLimit {
		status.RecentActivity = status.RecentActivity[:recentActivityLimit]
	}
	status.RecentDecisions = newestFirst(since(development.Decisions, cutoff))

	status.ActiveTodos = newestFirst(activeTodos(development.Todos))
	status.CompletedTodos = completedTodos(development.Todos)

	status.RecentlyModified = recentFiles(modifiedSince(document.FileStructure.Files, cutoff), recentFilesLimit)

	status.Summary = models.StatusSummary{
		TotalFiles:     document.Scan.FileCount,
		TotalUpdates:   len(development.Updates),
		ActiveTodos:    len(status.ActiveTodos),
		CompletedTodos: len(status.CompletedTodos),
	}
	status.NextSteps = m.nextSteps(document, status, now)
	return status, nil
}

// nextSteps derives up to nextStepsLimit suggestions from the log and the scan.
func (m *ContextManager) nextSteps(document *storagemodels.Document, status *models.DevelopmentStatus, now time.Time) []string {
	steps := []string{}
	if len(status.ActiveTodos) > 0 {
		steps = append(steps, "Continue with: "+status.ActiveTodos[0].Content)
	}
	if len(status.RecentActivity) == 0 {
		steps = append(steps, "No recent activity - consider updating project status")
	}
	if document.Scan.LastUpdated != nil && document.Scan.FileCount == 0 {
		steps = append(steps, "Project appears empty - initialize with basic structure")
	}
	if document.Scan.LastUpdated == nil || now.Sub(*document.Scan.LastUpdated) > m.staleAfter {
		steps = append(steps, "Project context is stale - run scan_project to refresh it")
	}
	if len(steps) > nextStepsLimit {
		steps = steps[:nextStepsLimit]
	}
	return steps
}

func since(entries []storagemodels.LogEntry, cutoff time.Time) []storagemodels.LogEntry {
	recent := make([]storagemodels.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Timestamp.After(cutoff) {
			recent = append(recent, entry)
		}
	}
	return recent
}

// newestFirst sorts entries by timestamp, descending, in place.
func newestFirst(entries []storagemodels.LogEntry) []storagemodels.LogEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

// completedTodos returns completed todos, most recently completed first.
func completedTodos(todos []storagemodels.LogEntry) []storagemodels.LogEntry {
	completed := make([]storagemodels.LogEntry, 0)
	for _, todo := range todos {
		if todo.Completed {
			completed = append(completed, todo)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completedAt(completed[i]).After(completedAt(completed[j]))
	})
	return completed
}

func completedAt(todo storagemodels.LogEntry) time.Time {
	if todo.CompletedAt != nil {
		return *todo.CompletedAt
	}
	return todo.Timestamp
}

func modifiedSince(files []scanmodels.FileEntry, cutoff time.Time) []scanmodels.FileEntry {
	recent := make([]scanmodels.FileEntry, 0, len(files))
	for _, file := range files {
		if file.Modified.After(cutoff) {
			recent = append(recent, file)
		}
	}
	return recent
}
