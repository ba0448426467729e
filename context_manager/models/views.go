package models

import (
	"time"

	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
)

// FormattedContext is the view of a project returned by get_context.
type FormattedContext struct {
	ProjectInfo       storagemodels.ProjectSection `json:"project_info" yaml:"project_info"`
	DevelopmentStatus DevelopmentStatusView        `json:"development_status" yaml:"development_status"`
	Architecture      storagemodels.Architecture   `json:"architecture" yaml:"architecture"`
	ScanInfo          ScanInfoView                 `json:"scan_info" yaml:"scan_info"`
	FileStructure     *FileStructureView           `json:"file_structure,omitempty" yaml:"file_structure,omitempty"`
	// Rescanned is set when the stored snapshot was stale and refreshed for this call.
	Rescanned bool `json:"rescanned" yaml:"rescanned"`
}

type DevelopmentStatusView struct {
	Status        string                   `json:"status" yaml:"status"`
	CurrentFocus  string                   `json:"current_focus" yaml:"current_focus"`
	ActiveTodos   []storagemodels.LogEntry `json:"active_todos" yaml:"active_todos"`
	RecentUpdates []storagemodels.LogEntry `json:"recent_updates" yaml:"recent_updates"`
}

type ScanInfoView struct {
	LastUpdated      *time.Time `json:"last_updated" yaml:"last_updated"`
	TotalFiles       int        `json:"total_files" yaml:"total_files"`
	TotalDirectories int        `json:"total_directories" yaml:"total_directories"`
	MainLanguage     string     `json:"main_language" yaml:"main_language"`
	Frameworks       []string   `json:"frameworks" yaml:"frameworks"`
	TriggeredBy      string     `json:"triggered_by,omitempty" yaml:"triggered_by,omitempty"`
}

type FileStructureView struct {
	ImportantFiles []scanmodels.ImportantFile `json:"important_files" yaml:"important_files"`
	DirectoryCount int                        `json:"directory_count" yaml:"directory_count"`
	FileCount      int                        `json:"file_count" yaml:"file_count"`
	Languages      map[string]int             `json:"languages" yaml:"languages"`
	RecentFiles    []RecentFile               `json:"recent_files" yaml:"recent_files"`
}

// RecentFile is a file listed by modification time.
type RecentFile struct {
	Path     string    `json:"path" yaml:"path"`
	Name     string    `json:"name" yaml:"name"`
	Modified time.Time `json:"modified" yaml:"modified"`
	Language string    `json:"language" yaml:"language"`
}

// Match types reported by search.
const (
	MatchFile              = "file"
	MatchDocumentation     = "documentation"
	MatchDevelopmentUpdate = "development_update"
	MatchDecision          = "decision"
	MatchTodo              = "todo"
	MatchCodeSemantic      = "code_semantic"
)

// SearchMatch is one ranked search hit.
type SearchMatch struct {
	Type       string     `json:"type" yaml:"type"`
	File       string     `json:"file,omitempty" yaml:"file,omitempty"`
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Content    string     `json:"content,omitempty" yaml:"content,omitempty"`
	Preview    string     `json:"preview,omitempty" yaml:"preview,omitempty"`
	Language   string     `json:"language,omitempty" yaml:"language,omitempty"`
	ChunkKind  string     `json:"chunk_type,omitempty" yaml:"chunk_type,omitempty"`
	StartLine  int        `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine    int        `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Similarity float32    `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Tags       []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Relevance  float64    `json:"relevance" yaml:"relevance"`
	Context    string     `json:"context" yaml:"context"`
}

// SearchResult holds the ranked matches, or suggestions when nothing matched.
type SearchResult struct {
	Query       string        `json:"query" yaml:"query"`
	Matches     []SearchMatch `json:"matches" yaml:"matches"`
	Suggestions []string      `json:"suggestions" yaml:"suggestions"`
}

// DevelopmentStatus summarises recent activity of a project.
type DevelopmentStatus struct {
	ProjectName      string                   `json:"project_name" yaml:"project_name"`
	CurrentStatus    string                   `json:"current_status" yaml:"current_status"`
	CurrentFocus     string                   `json:"current_focus" yaml:"current_focus"`
	DaysBack         int                      `json:"days_back" yaml:"days_back"`
	RecentActivity   []storagemodels.LogEntry `json:"recent_activity" yaml:"recent_activity"`
	ActiveTodos      []storagemodels.LogEntry `json:"active_todos" yaml:"active_todos"`
	CompletedTodos   []storagemodels.LogEntry `json:"completed_todos" yaml:"completed_todos"`
	RecentDecisions  []storagemodels.LogEntry `json:"recent_decisions" yaml:"recent_decisions"`
	RecentlyModified []RecentFile             `json:"recently_modified" yaml:"recently_modified"`
	NextSteps        []string                 `json:"next_steps" yaml:"next_steps"`
	Summary          StatusSummary            `json:"summary" yaml:"summary"`
}

type StatusSummary struct {
	TotalFiles     int `json:"total_files" yaml:"total_files"`
	TotalUpdates   int `json:"total_updates" yaml:"total_updates"`
	ActiveTodos    int `json:"active_todos" yaml:"active_todos"`
	CompletedTodos int `json:"completed_todos" yaml:"completed_todos"`
}

// ScanSummary reports the outcome of scan_project.
type ScanSummary struct {
	ProjectName    string    `json:"project_name" yaml:"project_name"`
	ProjectPath    string    `json:"project_path" yaml:"project_path"`
	FileCount      int       `json:"file_count" yaml:"file_count"`
	DirectoryCount int       `json:"directory_count" yaml:"directory_count"`
	IndexedChunks  int       `json:"indexed_chunks" yaml:"indexed_chunks"`
	DurationMs     int64     `json:"duration_ms" yaml:"duration_ms"`
	ScannedAt      time.Time `json:"timestamp" yaml:"timestamp"`
	TriggeredBy    string    `json:"triggered_by" yaml:"triggered_by"`
}
