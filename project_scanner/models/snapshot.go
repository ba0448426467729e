package models

import "time"

// ProjectInfo describes the project as identified from its manifest.
type ProjectInfo struct {
	Name         string            `yaml:"name" json:"name"`
	Path         string            `yaml:"path" json:"path"`
	Type         string            `yaml:"type" json:"type"`
	MainLanguage string            `yaml:"main_language,omitempty" json:"main_language,omitempty"`
	Framework    string            `yaml:"framework,omitempty" json:"framework,omitempty"`
	Version      string            `yaml:"version,omitempty" json:"version,omitempty"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Dependencies []string          `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Scripts      map[string]string `yaml:"scripts,omitempty" json:"scripts,omitempty"`
}

// DirectoryEntry is one directory below the project root.
type DirectoryEntry struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
}

// FileEntry is one file below the project root with its content signals.
type FileEntry struct {
	Path        string                 `yaml:"path" json:"path"`
	Name        string                 `yaml:"name" json:"name"`
	Extension   string                 `yaml:"extension" json:"extension"`
	Size        int64                  `yaml:"size" json:"size"`
	Modified    time.Time              `yaml:"modified" json:"modified"`
	MimeType    string                 `yaml:"mime_type" json:"mime_type"`
	Language    string                 `yaml:"language" json:"language"`
	IsText      bool                   `yaml:"is_text" json:"is_text"`
	Preview     string                 `yaml:"preview,omitempty" json:"preview,omitempty"`
	FrontMatter map[string]interface{} `yaml:"front_matter,omitempty" json:"front_matter,omitempty"`
	Imports     []string               `yaml:"imports,omitempty" json:"imports,omitempty"`
	ReadError   string                 `yaml:"read_error,omitempty" json:"read_error,omitempty"`
}

// ImportantFile references a file flagged as a manifest, entry point, dotfile or config.
type ImportantFile struct {
	Path     string `yaml:"path" json:"path"`
	Name     string `yaml:"name" json:"name"`
	Language string `yaml:"language" json:"language"`
	Size     int64  `yaml:"size" json:"size"`
}

// CodeAnalysis aggregates language, framework and pattern hints.
type CodeAnalysis struct {
	Languages  map[string]int `yaml:"languages" json:"languages"`
	Frameworks []string       `yaml:"frameworks" json:"frameworks"`
	Patterns   []string       `yaml:"patterns" json:"patterns"`
}

// Snapshot is the result of one scan of a project tree.
type Snapshot struct {
	Project        ProjectInfo      `json:"project"`
	Directories    []DirectoryEntry `json:"directories"`
	Files          []FileEntry      `json:"files"`
	CodeAnalysis   CodeAnalysis     `json:"code_analysis"`
	ImportantFiles []ImportantFile  `json:"important_files"`
	ScannedAt      time.Time        `json:"scanned_at"`
	Duration       time.Duration    `json:"duration"`
	TriggeredBy    string           `json:"triggered_by"`
}

// FileCount returns the number of files in the snapshot.
func (s *Snapshot) FileCount() int {
	return len(s.Files)
}

// DirectoryCount returns the number of directories in the snapshot.
func (s *Snapshot) DirectoryCount() int {
	return len(s.Directories)
}

// ScanOptions controls one scan.
type ScanOptions struct {
	// ForceRefresh bypasses the file analysis cache.
	ForceRefresh bool
	// TriggeredBy labels the scan for logs and metrics (manual, stale, watcher).
	TriggeredBy string
}
