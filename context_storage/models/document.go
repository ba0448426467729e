package models

import (
	"time"

	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
)

// UpdateType is the kind of a development log entry.
type UpdateType string

const (
	UpdateNote             UpdateType = "note"
	UpdateDecision         UpdateType = "decision"
	UpdateStatus           UpdateType = "status"
	UpdateTodo             UpdateType = "todo"
	UpdateCompletion       UpdateType = "completion"
	UpdateFileSystemChange UpdateType = "file_system_change"
)

// Valid reports whether t is one of the known update kinds.
func (t UpdateType) Valid() bool {
	switch t {
	case UpdateNote, UpdateDecision, UpdateStatus, UpdateTodo, UpdateCompletion, UpdateFileSystemChange:
		return true
	}
	return false
}

// Document is the persisted knowledge of one project.
type Document struct {
	Project        ProjectSection             `yaml:"project" json:"project"`
	FileStructure  FileStructure              `yaml:"file_structure" json:"file_structure"`
	Development    Development                `yaml:"development" json:"development"`
	Architecture   Architecture               `yaml:"architecture" json:"architecture"`
	CodeAnalysis   scanmodels.CodeAnalysis    `yaml:"code_analysis" json:"code_analysis"`
	ImportantFiles []scanmodels.ImportantFile `yaml:"important_files" json:"important_files"`
	Scan           ScanInfo                   `yaml:"scan" json:"scan"`
}

type ProjectSection struct {
	Name         string            `yaml:"name" json:"name"`
	Path         string            `yaml:"path" json:"path"`
	Type         string            `yaml:"type" json:"type"`
	Description  string            `yaml:"description" json:"description"`
	CreatedAt    time.Time         `yaml:"created_at" json:"created_at"`
	LastAccessed time.Time         `yaml:"last_accessed" json:"last_accessed"`
	MainLanguage string            `yaml:"main_language" json:"main_language"`
	Framework    string            `yaml:"framework" json:"framework"`
	Version      string            `yaml:"version" json:"version"`
	Dependencies []string          `yaml:"dependencies" json:"dependencies"`
	Scripts      map[string]string `yaml:"scripts,omitempty" json:"scripts,omitempty"`
}

type FileStructure struct {
	Directories      []scanmodels.DirectoryEntry `yaml:"directories" json:"directories"`
	Files            []scanmodels.FileEntry      `yaml:"files" json:"files"`
	TotalFiles       int                         `yaml:"total_files" json:"total_files"`
	TotalDirectories int                         `yaml:"total_directories" json:"total_directories"`
}

// Development is the project's development log.
type Development struct {
	Status          string     `yaml:"status" json:"status"`
	CurrentFocus    string     `yaml:"current_focus" json:"current_focus"`
	Updates         []LogEntry `yaml:"updates" json:"updates"`
	Todos           []LogEntry `yaml:"todos" json:"todos"`
	Decisions       []LogEntry `yaml:"decisions" json:"decisions"`
	CodingStandards []string   `yaml:"coding_standards" json:"coding_standards"`
}

// LogEntry is one note, decision, status change, todo, completion or file change.
type LogEntry struct {
	ID          string            `yaml:"id" json:"id"`
	Timestamp   time.Time         `yaml:"timestamp" json:"timestamp"`
	Type        UpdateType        `yaml:"type" json:"type"`
	Content     string            `yaml:"content" json:"content"`
	Tags        []string          `yaml:"tags,omitempty" json:"tags,omitempty"`
	Completed   bool              `yaml:"completed,omitempty" json:"completed,omitempty"`
	CompletedAt *time.Time        `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	TodoID      string            `yaml:"todo_id,omitempty" json:"todo_id,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

type Architecture struct {
	Patterns     []string `yaml:"patterns" json:"patterns"`
	Technologies []string `yaml:"technologies" json:"technologies"`
	Dependencies []string `yaml:"dependencies" json:"dependencies"`
	KeyFiles     []string `yaml:"key_files" json:"key_files"`
}

// ScanInfo records when and how the stored snapshot was produced.
// LastUpdated is nil until the first scan.
type ScanInfo struct {
	LastUpdated    *time.Time `yaml:"last_updated" json:"last_updated"`
	FileCount      int        `yaml:"fileCount" json:"fileCount"`
	DirectoryCount int        `yaml:"directoryCount" json:"directoryCount"`
	DurationMs     int64      `yaml:"duration_ms" json:"duration_ms"`
	TriggeredBy    string     `yaml:"triggered_by,omitempty" json:"triggered_by,omitempty"`
}

// Update is a caller-supplied development log entry.
type Update struct {
	Type     UpdateType
	Content  string
	Tags     []string
	TodoID   string
	Metadata map[string]string
}

// ProjectSummary is the listing view of a stored project.
type ProjectSummary struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	LastAccessed time.Time `json:"last_accessed"`
	Status       string    `json:"status"`
	FileCount    int       `json:"file_count"`
}
