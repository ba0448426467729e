package context_manager

import (
	"sort"

	"github.com/meysamhadeli/projctx/context_manager/models"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
)

const (
	recentUpdatesInContext = 5
	recentFilesLimit       = 10
	noFocus                = "Not specified"
)

// formatContext builds the get_context view of a stored document.
func formatContext(document *storagemodels.Document, includeFiles bool) *models.FormattedContext {
	focus := document.Development.CurrentFocus
	if focus == "" {
		focus = noFocus
	}

	formatted := &models.FormattedContext{
		ProjectInfo: document.Project,
		DevelopmentStatus: models.DevelopmentStatusView{
			Status:        document.Development.Status,
			CurrentFocus:  focus,
			ActiveTodos:   activeTodos(document.Development.Todos),
			RecentUpdates: lastEntries(document.Development.Updates, recentUpdatesInContext),
		},
		Architecture: document.Architecture,
		ScanInfo: models.ScanInfoView{
			LastUpdated:      document.Scan.LastUpdated,
			TotalFiles:       document.Scan.FileCount,
			TotalDirectories: document.Scan.DirectoryCount,
			MainLanguage:     document.Project.MainLanguage,
			Frameworks:       emptyIfNil(document.CodeAnalysis.Frameworks),
			TriggeredBy:      document.Scan.TriggeredBy,
		},
	}

	if includeFiles {
		formatted.FileStructure = &models.FileStructureView{
			ImportantFiles: document.ImportantFiles,
			DirectoryCount: document.FileStructure.TotalDirectories,
			FileCount:      document.FileStructure.TotalFiles,
			Languages:      document.CodeAnalysis.Languages,
			RecentFiles:    recentFiles(document.FileStructure.Files, recentFilesLimit),
		}
		if formatted.FileStructure.ImportantFiles == nil {
			formatted.FileStructure.ImportantFiles = []scanmodels.ImportantFile{}
		}
		if formatted.FileStructure.Languages == nil {
			formatted.FileStructure.Languages = map[string]int{}
		}
	}
	return formatted
}

// activeTodos returns the todos not yet completed, in log order.
func activeTodos(todos []storagemodels.LogEntry) []storagemodels.LogEntry {
	active := make([]storagemodels.LogEntry, 0, len(todos))
	for _, todo := range todos {
		if !todo.Completed {
			active = append(active, todo)
		}
	}
	return active
}

// lastEntries returns the final n entries of the log.
func lastEntries(entries []storagemodels.LogEntry, n int) []storagemodels.LogEntry {
	if len(entries) <= n {
		return append([]storagemodels.LogEntry{}, entries...)
	}
	return append([]storagemodels.LogEntry{}, entries[len(entries)-n:]...)
}

// recentFiles returns up to limit files, most recently modified first.
func recentFiles(files []scanmodels.FileEntry, limit int) []models.RecentFile {
	sorted := append([]scanmodels.FileEntry{}, files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Modified.After(sorted[j].Modified)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	recent := make([]models.RecentFile, 0, len(sorted))
	for _, file := range sorted {
		recent = append(recent, models.RecentFile{
			Path:     file.Path,
			Name:     file.Name,
			Modified: file.Modified,
			Language: file.Language,
		})
	}
	return recent
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
