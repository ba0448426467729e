package context_storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/projctx/context_storage/contracts"
	"github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/metrics"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const documentExtension = ".yml"

// ErrInvalidUpdate is returned for updates with an unknown type or empty content.
var ErrInvalidUpdate = errors.New("invalid development update")

// ContextStorage keeps one YAML document per project under a storage directory.
type ContextStorage struct {
	storageDir string
	now        func() time.Time

	locksMutex sync.Mutex
	locks      map[string]*sync.Mutex
}

// Option configures a ContextStorage.
type Option func(*ContextStorage)

// WithClock replaces the wall clock used for timestamps and entry ids.
func WithClock(now func() time.Time) Option {
	return func(s *ContextStorage) {
		s.now = now
	}
}

// NewContextStorage creates a store rooted at storageDir.
func NewContextStorage(storageDir string, options ...Option) contracts.IContextStorage {
	storage := &ContextStorage{
		storageDir: storageDir,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
	for _, option := range options {
		option(storage)
	}
	return storage
}

// ProjectKey derives the document name from the project's base directory name.
// Distinct paths sharing a basename map to the same key.
func (s *ContextStorage) ProjectKey(projectPath string) string {
	base := strings.ToLower(filepath.Base(filepath.Clean(projectPath)))
	var builder strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
		} else {
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

func (s *ContextStorage) documentPath(projectPath string) string {
	return filepath.Join(s.storageDir, s.ProjectKey(projectPath)+documentExtension)
}

// lockFor returns the mutex serialising writes to one project key.
func (s *ContextStorage) lockFor(projectPath string) *sync.Mutex {
	key := s.ProjectKey(projectPath)

	s.locksMutex.Lock()
	defer s.locksMutex.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Load returns the stored document, or a default skeleton when none exists or it cannot be parsed.
func (s *ContextStorage) Load(projectPath string) (*models.Document, error) {
	return s.load(projectPath)
}

func (s *ContextStorage) load(projectPath string) (*models.Document, error) {
	documentPath := s.documentPath(projectPath)
	data, err := os.ReadFile(documentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s.defaultDocument(projectPath), nil
		}
		return nil, fmt.Errorf("failed to read project context %s: %w", documentPath, err)
	}

	var document models.Document
	if err := yaml.Unmarshal(data, &document); err != nil {
		logging.Warn("malformed project context, starting from defaults", logging.Path(documentPath), logging.Err(err))
		return s.defaultDocument(projectPath), nil
	}
	normalize(&document)
	return &document, nil
}

// Save writes the document atomically, replacing any previous version.
func (s *ContextStorage) Save(projectPath string, document *models.Document) error {
	lock := s.lockFor(projectPath)
	lock.Lock()
	defer lock.Unlock()
	return s.save(projectPath, document)
}

func (s *ContextStorage) save(projectPath string, document *models.Document) error {
	if err := os.MkdirAll(s.storageDir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("failed to encode project context: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode project context: %w", err)
	}

	documentPath := s.documentPath(projectPath)
	tmp, err := os.CreateTemp(s.storageDir, filepath.Base(documentPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary context file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write project context: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write project context: %w", err)
	}
	if err := os.Rename(tmpPath, documentPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace project context: %w", err)
	}
	return nil
}

// SaveScanResult merges a snapshot into the stored document. The development
// log and the project's creation, access and description fields are kept.
func (s *ContextStorage) SaveScanResult(projectPath string, snapshot *scanmodels.Snapshot) (*models.Document, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is required")
	}

	lock := s.lockFor(projectPath)
	lock.Lock()
	defer lock.Unlock()

	document, err := s.load(projectPath)
	if err != nil {
		return nil, err
	}

	info := snapshot.Project
	project := &document.Project
	project.Name = info.Name
	if info.Path != "" {
		project.Path = info.Path
	}
	project.Type = info.Type
	project.MainLanguage = info.MainLanguage
	project.Framework = info.Framework
	project.Version = info.Version
	project.Dependencies = emptyIfNil(info.Dependencies)
	project.Scripts = info.Scripts
	if project.Description == "" {
		project.Description = info.Description
	}

	document.FileStructure = models.FileStructure{
		Directories:      snapshot.Directories,
		Files:            snapshot.Files,
		TotalFiles:       snapshot.FileCount(),
		TotalDirectories: snapshot.DirectoryCount(),
	}

	keyFiles := make([]string, 0, len(snapshot.ImportantFiles))
	for _, file := range snapshot.ImportantFiles {
		keyFiles = append(keyFiles, file.Path)
	}
	document.Architecture = models.Architecture{
		Patterns:     emptyIfNil(snapshot.CodeAnalysis.Patterns),
		Technologies: emptyIfNil(snapshot.CodeAnalysis.Frameworks),
		Dependencies: emptyIfNil(info.Dependencies),
		KeyFiles:     keyFiles,
	}
	document.CodeAnalysis = snapshot.CodeAnalysis
	document.ImportantFiles = snapshot.ImportantFiles

	scannedAt := snapshot.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = s.now().UTC()
	}
	document.Scan = models.ScanInfo{
		LastUpdated:    &scannedAt,
		FileCount:      snapshot.FileCount(),
		DirectoryCount: snapshot.DirectoryCount(),
		DurationMs:     snapshot.Duration.Milliseconds(),
		TriggeredBy:    snapshot.TriggeredBy,
	}

	normalize(document)
	if err := s.save(projectPath, document); err != nil {
		return nil, err
	}
	return document, nil
}

// AppendUpdate adds an entry to the development log and returns it.
func (s *ContextStorage) AppendUpdate(projectPath string, update models.Update) (*models.LogEntry, error) {
	if !update.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidUpdate, update.Type)
	}
	if strings.TrimSpace(update.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidUpdate)
	}

	lock := s.lockFor(projectPath)
	lock.Lock()
	defer lock.Unlock()

	document, err := s.load(projectPath)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := models.LogEntry{
		ID:        nextEntryID(document, now),
		Timestamp: now,
		Type:      update.Type,
		Content:   update.Content,
		Tags:      update.Tags,
		TodoID:    update.TodoID,
		Metadata:  update.Metadata,
	}

	development := &document.Development
	switch update.Type {
	case models.UpdateTodo:
		development.Todos = append(development.Todos, entry)
	case models.UpdateDecision:
		development.Decisions = append(development.Decisions, entry)
	case models.UpdateCompletion:
		if update.TodoID != "" && !completeTodo(development, update.TodoID, now) {
			logging.Debug("completion references unknown todo", logging.Project(projectPath), zap.String("todo_id", update.TodoID))
		}
		development.Updates = append(development.Updates, entry)
	case models.UpdateStatus:
		development.CurrentFocus = update.Content
		development.Updates = append(development.Updates, entry)
	default:
		development.Updates = append(development.Updates, entry)
	}

	if err := s.save(projectPath, document); err != nil {
		return nil, err
	}

	metrics.RecordUpdate(string(update.Type))
	return &entry, nil
}

func completeTodo(development *models.Development, todoID string, at time.Time) bool {
	for i := range development.Todos {
		if development.Todos[i].ID == todoID {
			completedAt := at
			development.Todos[i].Completed = true
			development.Todos[i].CompletedAt = &completedAt
			return true
		}
	}
	return false
}

// nextEntryID returns the millisecond timestamp, bumped past every id already in the log.
func nextEntryID(document *models.Document, now time.Time) string {
	id := now.UnixMilli()
	for _, entries := range [][]models.LogEntry{document.Development.Updates, document.Development.Todos, document.Development.Decisions} {
		for _, entry := range entries {
			if existing, err := strconv.ParseInt(entry.ID, 10, 64); err == nil && existing >= id {
				id = existing + 1
			}
		}
	}
	return strconv.FormatInt(id, 10)
}

// ListProjects summarises every stored document, most recently accessed first.
func (s *ContextStorage) ListProjects() ([]models.ProjectSummary, error) {
	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ProjectSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	summaries := make([]models.ProjectSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != documentExtension {
			continue
		}

		documentPath := filepath.Join(s.storageDir, entry.Name())
		data, err := os.ReadFile(documentPath)
		if err != nil {
			logging.Warn("failed to read project context", logging.Path(documentPath), logging.Err(err))
			continue
		}
		var document models.Document
		if err := yaml.Unmarshal(data, &document); err != nil {
			logging.Warn("skipping malformed project context", logging.Path(documentPath), logging.Err(err))
			continue
		}

		summaries = append(summaries, models.ProjectSummary{
			Name:         document.Project.Name,
			Path:         document.Project.Path,
			LastAccessed: document.Project.LastAccessed,
			Status:       document.Development.Status,
			FileCount:    document.Scan.FileCount,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastAccessed.After(summaries[j].LastAccessed)
	})
	return summaries, nil
}

// TouchLastAccessed stamps the project's last access time.
func (s *ContextStorage) TouchLastAccessed(projectPath string) error {
	lock := s.lockFor(projectPath)
	lock.Lock()
	defer lock.Unlock()

	document, err := s.load(projectPath)
	if err != nil {
		return err
	}
	document.Project.LastAccessed = s.now().UTC()
	return s.save(projectPath, document)
}

// DeleteProject removes the stored document. Removing an unknown project is not an error.
func (s *ContextStorage) DeleteProject(projectPath string) error {
	lock := s.lockFor(projectPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.documentPath(projectPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete project context: %w", err)
	}
	return nil
}

func (s *ContextStorage) defaultDocument(projectPath string) *models.Document {
	now := s.now().UTC()
	document := &models.Document{
		Project: models.ProjectSection{
			Name:         filepath.Base(filepath.Clean(projectPath)),
			Path:         projectPath,
			Type:         "unknown",
			CreatedAt:    now,
			LastAccessed: now,
			MainLanguage: "unknown",
			Framework:    "unknown",
			Version:      "1.0.0",
		},
		Development: models.Development{Status: "active"},
	}
	normalize(document)
	return document
}

// normalize replaces nil collections so documents always render as empty lists.
func normalize(document *models.Document) {
	document.Project.Dependencies = emptyIfNil(document.Project.Dependencies)

	structure := &document.FileStructure
	if structure.Directories == nil {
		structure.Directories = []scanmodels.DirectoryEntry{}
	}
	if structure.Files == nil {
		structure.Files = []scanmodels.FileEntry{}
	}

	development := &document.Development
	if development.Status == "" {
		development.Status = "active"
	}
	if development.Updates == nil {
		development.Updates = []models.LogEntry{}
	}
	if development.Todos == nil {
		development.Todos = []models.LogEntry{}
	}
	if development.Decisions == nil {
		development.Decisions = []models.LogEntry{}
	}
	development.CodingStandards = emptyIfNil(development.CodingStandards)

	architecture := &document.Architecture
	architecture.Patterns = emptyIfNil(architecture.Patterns)
	architecture.Technologies = emptyIfNil(architecture.Technologies)
	architecture.Dependencies = emptyIfNil(architecture.Dependencies)
	architecture.KeyFiles = emptyIfNil(architecture.KeyFiles)

	if document.CodeAnalysis.Languages == nil {
		document.CodeAnalysis.Languages = map[string]int{}
	}
	document.CodeAnalysis.Frameworks = emptyIfNil(document.CodeAnalysis.Frameworks)
	document.CodeAnalysis.Patterns = emptyIfNil(document.CodeAnalysis.Patterns)
	if document.ImportantFiles == nil {
		document.ImportantFiles = []scanmodels.ImportantFile{}
	}
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
