package context_manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/meysamhadeli/projctx/context_manager/models"
	storagecontracts "github.com/meysamhadeli/projctx/context_storage/contracts"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/logging"
	scancontracts "github.com/meysamhadeli/projctx/project_scanner/contracts"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/meysamhadeli/projctx/semantic_index"
	indexcontracts "github.com/meysamhadeli/projctx/semantic_index/contracts"
	"go.uber.org/zap"
)

const (
	DefaultStaleAfter      = 24 * time.Hour
	DefaultSemanticResults = 10
	DefaultDaysBack        = 7

	TriggerManual  = "manual"
	TriggerStale   = "stale"
	TriggerWatcher = "watcher"
)

// ErrInvalidArgument is returned for an empty project path or query.
var ErrInvalidArgument = errors.New("invalid argument")

// ContextManager serves project context on top of the scanner, the store and the semantic index.
type ContextManager struct {
	storage storagecontracts.IContextStorage
	scanner scancontracts.IProjectScanner
	index   indexcontracts.ISemanticIndex

	staleAfter      time.Duration
	semanticResults int
	now             func() time.Time
}

// Option configures a ContextManager.
type Option func(*ContextManager)

// WithStaleAfter sets how old a snapshot may get before get_context rescans.
func WithStaleAfter(staleAfter time.Duration) Option {
	return func(m *ContextManager) {
		if staleAfter > 0 {
			m.staleAfter = staleAfter
		}
	}
}

// WithSemanticResults sets how many similar chunks a search asks the index for.
func WithSemanticResults(results int) Option {
	return func(m *ContextManager) {
		if results > 0 {
			m.semanticResults = results
		}
	}
}

// WithClock replaces the wall clock used for staleness and activity windows.
func WithClock(now func() time.Time) Option {
	return func(m *ContextManager) {
		m.now = now
	}
}

// NewContextManager wires the manager to its collaborators.
func NewContextManager(storage storagecontracts.IContextStorage, scanner scancontracts.IProjectScanner, index indexcontracts.ISemanticIndex, options ...Option) *ContextManager {
	manager := &ContextManager{
		storage:         storage,
		scanner:         scanner,
		index:           index,
		staleAfter:      DefaultStaleAfter,
		semanticResults: DefaultSemanticResults,
		now:             time.Now,
	}
	for _, option := range options {
		option(manager)
	}
	return manager
}

// resolve validates projectPath and makes it absolute.
func resolve(projectPath string) (string, error) {
	if strings.TrimSpace(projectPath) == "" {
		return "", fmt.Errorf("%w: project path is required", ErrInvalidArgument)
	}
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return root, nil
}

// GetContext returns the formatted context of a project, rescanning first when the snapshot is stale.
func (m *ContextManager) GetContext(ctx context.Context, projectPath string, includeFiles bool) (*models.FormattedContext, error) {
	root, err := resolve(projectPath)
	if err != nil {
		return nil, err
	}

	if err := m.storage.TouchLastAccessed(root); err != nil {
		return nil, err
	}
	document, err := m.storage.Load(root)
	if err != nil {
		return nil, err
	}

	rescanned := false
	if m.isStale(document) {
		logging.Info("project context is stale, rescanning", logging.Project(root))
		if _, err := m.scan(ctx, root, false, TriggerStale); err != nil {
			return nil, err
		}
		if document, err = m.storage.Load(root); err != nil {
			return nil, err
		}
		rescanned = true
	}

	formatted := formatContext(document, includeFiles)
	formatted.Rescanned = rescanned
	return formatted, nil
}

// isStale reports whether the document was never scanned or its scan is older than the TTL.
func (m *ContextManager) isStale(document *storagemodels.Document) bool {
	if document.Scan.LastUpdated == nil {
		return true
	}
	return m.now().Sub(*document.Scan.LastUpdated) > m.staleAfter
}

// ScanProject scans, stores and indexes a project.
func (m *ContextManager) ScanProject(ctx context.Context, projectPath string, forceRefresh bool) (*models.ScanSummary, error) {
	root, err := resolve(projectPath)
	if err != nil {
		return nil, err
	}
	return m.scan(ctx, root, forceRefresh, TriggerManual)
}

// Rescan refreshes a project after file system changes.
func (m *ContextManager) Rescan(ctx context.Context, projectPath string) error {
	root, err := resolve(projectPath)
	if err != nil {
		return err
	}
	_, err = m.scan(ctx, root, false, TriggerWatcher)
	return err
}

func (m *ContextManager) scan(ctx context.Context, root string, forceRefresh bool, trigger string) (*models.ScanSummary, error) {
	snapshot, err := m.scanner.ScanProject(ctx, root, scanmodels.ScanOptions{ForceRefresh: forceRefresh, TriggeredBy: trigger})
	if err != nil {
		return nil, err
	}
	if _, err := m.storage.SaveScanResult(root, snapshot); err != nil {
		return nil, err
	}

	summary := &models.ScanSummary{
		ProjectName:    snapshot.Project.Name,
		ProjectPath:    root,
		FileCount:      snapshot.FileCount(),
		DirectoryCount: snapshot.DirectoryCount(),
		DurationMs:     snapshot.Duration.Milliseconds(),
		ScannedAt:      snapshot.ScannedAt,
		TriggeredBy:    trigger,
	}
	summary.IndexedChunks = m.indexSnapshot(ctx, root, snapshot, forceRefresh)
	return summary, nil
}

// indexSnapshot sends the snapshot's chunks to the semantic index. Index
// failures are logged and never fail the scan.
func (m *ContextManager) indexSnapshot(ctx context.Context, root string, snapshot *scanmodels.Snapshot, rebuild bool) int {
	project := m.storage.ProjectKey(root)

	if rebuild {
		if err := m.index.DeleteProject(ctx, project); err != nil {
			logging.Warn("failed to reset semantic index", logging.Project(root), logging.Err(err))
		}
	}

	chunks, err := m.scanner.ExtractChunks(ctx, root, snapshot)
	if err != nil {
		logging.Warn("failed to extract chunks", logging.Project(root), logging.Err(err))
		return 0
	}

	added, err := m.index.UpsertChunks(ctx, project, chunks)
	if err != nil {
		if errors.Is(err, semantic_index.ErrIndexUnavailable) {
			logging.Debug("semantic index unavailable, skipping indexing", logging.Project(root))
		} else {
			logging.Warn("failed to index chunks", logging.Project(root), logging.Err(err))
		}
		return 0
	}
	logging.Debug("indexed project", logging.Project(root), zap.Int("chunks", len(chunks)), zap.Int("added", added))
	return added
}

// UpdateContext appends a development log entry.
func (m *ContextManager) UpdateContext(_ context.Context, projectPath string, update storagemodels.Update) (*storagemodels.LogEntry, error) {
	root, err := resolve(projectPath)
	if err != nil {
		return nil, err
	}
	return m.storage.AppendUpdate(root, update)
}

// ListProjects lists stored projects, most recently accessed first.
func (m *ContextManager) ListProjects(_ context.Context) ([]storagemodels.ProjectSummary, error) {
	return m.storage.ListProjects()
}

// ForgetProject removes the stored context and the semantic index of a project.
func (m *ContextManager) ForgetProject(ctx context.Context, projectPath string) error {
	root, err := resolve(projectPath)
	if err != nil {
		return err
	}
	if err := m.index.DeleteProject(ctx, m.storage.ProjectKey(root)); err != nil {
		logging.Warn("failed to delete semantic index", logging.Project(root), logging.Err(err))
	}
	return m.storage.DeleteProject(root)
}

// IndexStats reports the semantic index collection of a project.
func (m *ContextManager) IndexStats(projectPath string) (indexcontracts.CollectionStats, error) {
	root, err := resolve(projectPath)
	if err != nil {
		return indexcontracts.CollectionStats{}, err
	}
	return m.index.Stats(m.storage.ProjectKey(root))
}
