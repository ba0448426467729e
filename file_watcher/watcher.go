package file_watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/metrics"
	"github.com/meysamhadeli/projctx/project_scanner"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the quiet period after the last event before a session acts on it.
const DefaultDebounce = 2 * time.Second

// ErrNotWatching is returned for roots without a live session.
var ErrNotWatching = errors.New("project is not being watched")

// ChangeRecorder appends entries to a project's development log.
type ChangeRecorder interface {
	AppendUpdate(projectPath string, update models.Update) (*models.LogEntry, error)
}

// Rescanner refreshes the stored snapshot of a project.
type Rescanner interface {
	Rescan(ctx context.Context, projectPath string) error
}

// SessionStatus describes one watch session.
type SessionStatus struct {
	ID           string     `json:"id"`
	Project      string     `json:"project"`
	ProjectPath  string     `json:"project_path"`
	StartedAt    time.Time  `json:"watching_since"`
	ChangeCount  int        `json:"file_changes"`
	LastUpdate   *time.Time `json:"last_update"`
	PendingEvent string     `json:"pending_event,omitempty"`
	WatchedDirs  int        `json:"watched_directories"`
	Active       bool       `json:"is_active"`
}

// Statistics aggregates every session of a FileWatcher.
type Statistics struct {
	TotalWatchedProjects int             `json:"total_watched_projects"`
	TotalFileChanges     int             `json:"total_file_changes"`
	ActiveWatchers       int             `json:"active_watchers"`
	Projects             []SessionStatus `json:"projects"`
}

// FileWatcher is the registry of watch sessions, at most one per absolute root.
type FileWatcher struct {
	recorder  ChangeRecorder
	rescanner Rescanner
	debounce  time.Duration

	mutex    sync.Mutex
	sessions map[string]*session
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the quiet period; non-positive values keep the default.
func WithDebounce(debounce time.Duration) Option {
	return func(w *FileWatcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// NewFileWatcher creates an empty session registry.
func NewFileWatcher(recorder ChangeRecorder, rescanner Rescanner, options ...Option) *FileWatcher {
	watcher := &FileWatcher{
		recorder:  recorder,
		rescanner: rescanner,
		debounce:  DefaultDebounce,
		sessions:  make(map[string]*session),
	}
	for _, option := range options {
		option(watcher)
	}
	return watcher
}

func absoluteRoot(projectPath string) (string, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", project_scanner.ErrProjectNotFound, projectPath)
	}
	return root, nil
}

// StartWatching starts a session for projectPath. A root that is already
// watched gets a fresh session.
func (w *FileWatcher) StartWatching(projectPath string) (SessionStatus, error) {
	root, err := absoluteRoot(projectPath)
	if err != nil {
		return SessionStatus{}, err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return SessionStatus{}, fmt.Errorf("%w: %s", project_scanner.ErrProjectNotFound, root)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if existing, ok := w.sessions[root]; ok {
		if err := existing.stop(); err != nil {
			logging.Warn("failed to stop previous watch session", logging.Project(root), logging.Err(err))
		}
		delete(w.sessions, root)
	}

	s, err := newSession(uuid.NewString(), root, w.debounce, w.recorder, w.rescanner)
	if err != nil {
		return SessionStatus{}, err
	}
	w.sessions[root] = s
	go s.run()

	metrics.SetActiveWatchSessions(len(w.sessions))
	logging.Info("watching project", logging.Project(root), zap.String("session", s.id), zap.Duration("debounce", w.debounce))
	return s.status(), nil
}

// StopWatching ends the session of projectPath.
func (w *FileWatcher) StopWatching(projectPath string) error {
	root, err := absoluteRoot(projectPath)
	if err != nil {
		return err
	}

	w.mutex.Lock()
	s, ok := w.sessions[root]
	if ok {
		delete(w.sessions, root)
	}
	metrics.SetActiveWatchSessions(len(w.sessions))
	w.mutex.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWatching, root)
	}

	logging.Info("stopped watching project", logging.Project(root), zap.String("session", s.id))
	return s.stop()
}

// StopAll ends every session concurrently.
func (w *FileWatcher) StopAll() error {
	w.mutex.Lock()
	sessions := make([]*session, 0, len(w.sessions))
	for root, s := range w.sessions {
		sessions = append(sessions, s)
		delete(w.sessions, root)
	}
	metrics.SetActiveWatchSessions(0)
	w.mutex.Unlock()

	var group errgroup.Group
	for _, s := range sessions {
		group.Go(s.stop)
	}
	return group.Wait()
}

// IsWatching reports whether projectPath has a session.
func (w *FileWatcher) IsWatching(projectPath string) bool {
	root, err := absoluteRoot(projectPath)
	if err != nil {
		return false
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_, ok := w.sessions[root]
	return ok
}

// Status returns the state of projectPath's session.
func (w *FileWatcher) Status(projectPath string) (SessionStatus, error) {
	root, err := absoluteRoot(projectPath)
	if err != nil {
		return SessionStatus{}, err
	}
	w.mutex.Lock()
	s, ok := w.sessions[root]
	w.mutex.Unlock()
	if !ok {
		return SessionStatus{}, fmt.Errorf("%w: %s", ErrNotWatching, root)
	}
	return s.status(), nil
}

// Sessions lists every session ordered by project path.
func (w *FileWatcher) Sessions() []SessionStatus {
	w.mutex.Lock()
	sessions := make([]*session, 0, len(w.sessions))
	for _, s := range w.sessions {
		sessions = append(sessions, s)
	}
	w.mutex.Unlock()

	statuses := make([]SessionStatus, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, s.status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ProjectPath < statuses[j].ProjectPath })
	return statuses
}

// Statistics aggregates change counts over all sessions.
func (w *FileWatcher) Statistics() Statistics {
	statuses := w.Sessions()
	stats := Statistics{
		TotalWatchedProjects: len(statuses),
		Projects:             statuses,
	}
	for _, status := range statuses {
		stats.TotalFileChanges += status.ChangeCount
		if status.Active {
			stats.ActiveWatchers++
		}
	}
	return stats
}

// StartWatchingMultiple watches every non-hidden child directory of parentDir
// whose name is not excluded. Children that fail to start are logged and skipped.
func (w *FileWatcher) StartWatchingMultiple(parentDir string, exclude []string) ([]SessionStatus, error) {
	entries, err := os.ReadDir(parentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", parentDir, err)
	}

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	var started []SessionStatus
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || excluded[name] {
			continue
		}
		status, err := w.StartWatching(filepath.Join(parentDir, name))
		if err != nil {
			logging.Warn("failed to start watching project", logging.Project(name), logging.Err(err))
			continue
		}
		started = append(started, status)
	}

	logging.Info("started watching projects", logging.Path(parentDir), zap.Int("projects", len(started)))
	return started, nil
}
