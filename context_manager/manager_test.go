package context_manager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/meysamhadeli/projctx/context_manager/models"
	"github.com/meysamhadeli/projctx/context_storage"
	storagecontracts "github.com/meysamhadeli/projctx/context_storage/contracts"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/project_scanner"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/meysamhadeli/projctx/semantic_index"
	indexcontracts "github.com/meysamhadeli/projctx/semantic_index/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeScanner returns a fixed snapshot and counts scans.
type fakeScanner struct {
	mutex    sync.Mutex
	scans    int
	snapshot scanmodels.Snapshot
}

func (f *fakeScanner) ScanProject(_ context.Context, rootPath string, options scanmodels.ScanOptions) (*scanmodels.Snapshot, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.scans++
	snapshot := f.snapshot
	snapshot.Project.Path = rootPath
	if snapshot.Project.Name == "" {
		snapshot.Project.Name = filepath.Base(rootPath)
	}
	if snapshot.ScannedAt.IsZero() {
		snapshot.ScannedAt = testNow
	}
	snapshot.TriggeredBy = options.TriggeredBy
	return &snapshot, nil
}

func (f *fakeScanner) ExtractChunks(context.Context, string, *scanmodels.Snapshot) ([]scanmodels.TextChunk, error) {
	return nil, nil
}

func (f *fakeScanner) CacheStats() (scanmodels.CacheStats, error) {
	return scanmodels.CacheStats{}, nil
}

func (f *fakeScanner) ClearCache() error {
	return nil
}

func (f *fakeScanner) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.scans
}

func disabledIndex(t *testing.T) indexcontracts.ISemanticIndex {
	t.Helper()
	index, err := semantic_index.NewSemanticIndex(semantic_index.Config{Provider: semantic_index.ProviderNone})
	require.NoError(t, err)
	return index
}

func newTestManager(t *testing.T, scanner *fakeScanner) (*ContextManager, storagecontracts.IContextStorage, string) {
	t.Helper()
	storage := context_storage.NewContextStorage(t.TempDir(), context_storage.WithClock(func() time.Time { return testNow }))
	manager := NewContextManager(storage, scanner, disabledIndex(t), WithClock(func() time.Time { return testNow }))
	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	return manager, storage, root
}

// storeSnapshot persists a snapshot directly, bypassing the scanner.
func storeSnapshot(t *testing.T, storage storagecontracts.IContextStorage, root string, snapshot scanmodels.Snapshot) {
	t.Helper()
	snapshot.Project.Name = filepath.Base(root)
	_, err := storage.SaveScanResult(root, &snapshot)
	require.NoError(t, err)
}

func TestGetContext_RescansOnlyStaleSnapshots(t *testing.T) {
	tests := []struct {
		name         string
		scanAge      time.Duration
		neverScanned bool
		expectScan   bool
	}{
		{name: "25 hours old", scanAge: 25 * time.Hour, expectScan: true},
		{name: "1 hour old", scanAge: time.Hour, expectScan: false},
		{name: "never scanned", neverScanned: true, expectScan: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &fakeScanner{}
			manager, storage, root := newTestManager(t, scanner)
			if !tt.neverScanned {
				storeSnapshot(t, storage, root, scanmodels.Snapshot{ScannedAt: testNow.Add(-tt.scanAge)})
			}

			formatted, err := manager.GetContext(context.Background(), root, true)
			require.NoError(t, err)

			assert.Equal(t, tt.expectScan, formatted.Rescanned)
			if tt.expectScan {
				assert.Equal(t, 1, scanner.count())
				assert.Equal(t, TriggerStale, formatted.ScanInfo.TriggeredBy)
				require.NotNil(t, formatted.ScanInfo.LastUpdated)
				assert.True(t, formatted.ScanInfo.LastUpdated.Equal(testNow))
			} else {
				assert.Equal(t, 0, scanner.count())
			}

			// A fresh snapshot is served as is
			formatted, err = manager.GetContext(context.Background(), root, false)
			require.NoError(t, err)
			assert.False(t, formatted.Rescanned)
			assert.Nil(t, formatted.FileStructure)
		})
	}
}

func TestGetContext_FormatsDocument(t *testing.T) {
	scanner := &fakeScanner{}
	manager, storage, root := newTestManager(t, scanner)

	files := []scanmodels.FileEntry{
		{Path: "a.go", Name: "a.go", Language: "go", Modified: testNow.Add(-3 * time.Hour)},
		{Path: "b.go", Name: "b.go", Language: "go", Modified: testNow.Add(-1 * time.Hour)},
	}
	for i := 0; i < 12; i++ {
		files = append(files, scanmodels.FileEntry{Path: "old.txt", Name: "old.txt", Modified: testNow.AddDate(0, -1, -i)})
	}
	storeSnapshot(t, storage, root, scanmodels.Snapshot{
		Files:          files,
		Directories:    []scanmodels.DirectoryEntry{{Path: "cmd", Name: "cmd"}},
		CodeAnalysis:   scanmodels.CodeAnalysis{Languages: map[string]int{"go": 2}, Frameworks: []string{"gin"}},
		ImportantFiles: []scanmodels.ImportantFile{{Path: "go.mod", Name: "go.mod"}},
		ScannedAt:      testNow.Add(-time.Hour),
	})

	for i := 0; i < 7; i++ {
		_, err := storage.AppendUpdate(root, storagemodels.Update{Type: storagemodels.UpdateNote, Content: "note " + string(rune('a'+i))})
		require.NoError(t, err)
	}
	todo, err := storage.AppendUpdate(root, storagemodels.Update{Type: storagemodels.UpdateTodo, Content: "ship it"})
	require.NoError(t, err)
	_, err = storage.AppendUpdate(root, storagemodels.Update{Type: storagemodels.UpdateTodo, Content: "polish it"})
	require.NoError(t, err)
	_, err = storage.AppendUpdate(root, storagemodels.Update{Type: storagemodels.UpdateNote, Content: "last note"})
	require.NoError(t, err)

	formatted, err := manager.GetContext(context.Background(), root, true)
	require.NoError(t, err)

	assert.Equal(t, 0, scanner.count())
	assert.Equal(t, "active", formatted.DevelopmentStatus.Status)
	assert.Equal(t, "Not specified", formatted.DevelopmentStatus.CurrentFocus)
	require.Len(t, formatted.DevelopmentStatus.ActiveTodos, 2)
	assert.Equal(t, todo.ID, formatted.DevelopmentStatus.ActiveTodos[0].ID)
	require.Len(t, formatted.DevelopmentStatus.RecentUpdates, 5)
	assert.Equal(t, "last note", formatted.DevelopmentStatus.RecentUpdates[4].Content)

	assert.Equal(t, 14, formatted.ScanInfo.TotalFiles)
	assert.Equal(t, 1, formatted.ScanInfo.TotalDirectories)
	assert.Equal(t, []string{"gin"}, formatted.ScanInfo.Frameworks)

	require.NotNil(t, formatted.FileStructure)
	assert.Equal(t, "go.mod", formatted.FileStructure.ImportantFiles[0].Name)
	assert.Equal(t, map[string]int{"go": 2}, formatted.FileStructure.Languages)
	require.Len(t, formatted.FileStructure.RecentFiles, 10)
	assert.Equal(t, "b.go", formatted.FileStructure.RecentFiles[0].Path)
	assert.Equal(t, "a.go", formatted.FileStructure.RecentFiles[1].Path)
}

func TestSearch_BasenameOutranksPreview(t *testing.T) {
	manager, storage, root := newTestManager(t, &fakeScanner{})
	storeSnapshot(t, storage, root, scanmodels.Snapshot{
		Files: []scanmodels.FileEntry{
			{Path: "src/cart.js", Name: "cart.js", Extension: ".js", Preview: "calls the checkout api"},
			{Path: "src/checkout.js", Name: "checkout.js", Extension: ".js", Preview: "export default {}"},
		},
		ScannedAt: testNow,
	})

	result, err := manager.Search(context.Background(), root, "Checkout", nil)
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, "src/checkout.js", result.Matches[0].File)
	assert.Equal(t, float64(15), result.Matches[0].Relevance)
	assert.Equal(t, models.MatchFile, result.Matches[0].Type)
	assert.Equal(t, "src/cart.js", result.Matches[1].File)
	assert.Equal(t, float64(2), result.Matches[1].Relevance)
	assert.Empty(t, result.Suggestions)
}

func TestSearch_DocumentationSnippet(t *testing.T) {
	manager, storage, root := newTestManager(t, &fakeScanner{})
	preview := strings.Repeat("intro ", 20) + "Deployment guide for staging" + strings.Repeat(" more", 60)
	storeSnapshot(t, storage, root, scanmodels.Snapshot{
		Files: []scanmodels.FileEntry{
			{Path: "docs/README.md", Name: "README.md", Extension: ".md", Language: "markdown", Preview: preview},
		},
		ScannedAt: testNow,
	})

	result, err := manager.Search(context.Background(), root, "deployment", nil)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.Equal(t, models.MatchDocumentation, match.Type)
	assert.Equal(t, "Documentation: docs/README.md", match.Context)
	assert.True(t, strings.HasPrefix(match.Preview, "..."))
	assert.True(t, strings.HasSuffix(match.Preview, "..."))
	assert.Contains(t, match.Preview, "Deployment guide for staging")
	assert.Equal(t, float64(2), match.Relevance)
}

func TestSnippet_MultiByteText(t *testing.T) {
	text := strings.Repeat("İ", 40) + " the Needle here" + strings.Repeat(" tail", 50)

	cut := snippet(text, "needle")
	assert.True(t, utf8.ValidString(cut))
	assert.True(t, strings.HasPrefix(cut, "İİ"))
	assert.True(t, strings.HasSuffix(cut, "..."))
	assert.Contains(t, cut, "the Needle here")
	assert.Equal(t, 40+len(" the Needle")+snippetAfter+len("..."), utf8.RuneCountInString(cut))

	long := strings.Repeat("é", 300)
	cut = snippet(long, "missing")
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, snippetDefault, utf8.RuneCountInString(cut))

	assert.Equal(t, "Hello WORLD", snippet("Hello WORLD", "world"))
}

func TestSearch_LogEntries(t *testing.T) {
	manager, storage, root := newTestManager(t, &fakeScanner{})
	for _, update := range []storagemodels.Update{
		{Type: storagemodels.UpdateNote, Content: "Switched payments to Stripe"},
		{Type: storagemodels.UpdateDecision, Content: "Use Stripe webhooks for refunds"},
		{Type: storagemodels.UpdateTodo, Content: "Add Stripe refunds", Tags: []string{"billing"}},
		{Type: storagemodels.UpdateNote, Content: "Unrelated"},
	} {
		_, err := storage.AppendUpdate(root, update)
		require.NoError(t, err)
	}

	result, err := manager.Search(context.Background(), root, "stripe", nil)
	require.NoError(t, err)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, models.MatchDevelopmentUpdate, result.Matches[0].Type)
	assert.Equal(t, models.MatchDecision, result.Matches[1].Type)
	assert.Equal(t, models.MatchTodo, result.Matches[2].Type)
	assert.Equal(t, []string{"billing"}, result.Matches[2].Tags)
	for _, match := range result.Matches {
		assert.Equal(t, float64(3), match.Relevance)
		assert.NotNil(t, match.Timestamp)
	}
}

func TestSearch_SuggestionsWhenNothingMatches(t *testing.T) {
	manager, storage, root := newTestManager(t, &fakeScanner{})
	storeSnapshot(t, storage, root, scanmodels.Snapshot{
		Files:          []scanmodels.FileEntry{{Path: "package.json", Name: "package.json", Extension: ".json"}},
		CodeAnalysis:   scanmodels.CodeAnalysis{Languages: map[string]int{"unknown": 9, "typescript": 3, "javascript": 3, "css": 1}},
		ImportantFiles: []scanmodels.ImportantFile{{Path: "package.json", Name: "package.json"}},
		ScannedAt:      testNow,
	})
	_, err := storage.AppendUpdate(root, storagemodels.Update{Type: storagemodels.UpdateNote, Content: "bootstrapped"})
	require.NoError(t, err)

	result, err := manager.Search(context.Background(), root, "kubernetes", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.Equal(t, []string{
		"Search in javascript files",
		"Check package.json",
		"Search recent development updates",
	}, result.Suggestions)
}

func TestSearch_FileTypeFilter(t *testing.T) {
	manager, storage, root := newTestManager(t, &fakeScanner{})
	storeSnapshot(t, storage, root, scanmodels.Snapshot{
		Files: []scanmodels.FileEntry{
			{Path: "checkout.js", Name: "checkout.js", Extension: ".js"},
			{Path: "checkout.md", Name: "checkout.md", Extension: ".md"},
		},
		ScannedAt: testNow,
	})

	all, err := manager.Search(context.Background(), root, "checkout", nil)
	require.NoError(t, err)
	assert.Len(t, all.Matches, 2)

	for _, fileTypes := range [][]string{{"js"}, {".JS"}} {
		filtered, err := manager.Search(context.Background(), root, "checkout", fileTypes)
		require.NoError(t, err)
		require.Len(t, filtered.Matches, 1)
		assert.Equal(t, "checkout.js", filtered.Matches[0].File)
	}
}

func TestSearch_InvalidArguments(t *testing.T) {
	manager, _, root := newTestManager(t, &fakeScanner{})

	_, err := manager.Search(context.Background(), root, "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = manager.Search(context.Background(), "", "query", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = manager.GetContext(context.Background(), "", true)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = manager.ScanProject(context.Background(), " ", false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScanAndSemanticSearch(t *testing.T) {
	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "billing"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "billing", "invoice.go"), []byte(`package billing

// InvoiceTotal sums the amounts of every invoice line item.
func InvoiceTotal(items []int) int {
	total := 0
	for _, item := range items {
		total += item
	}
	return total
}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "NOTES.txt"), []byte("deployment uses docker compose and nginx\n"), 0644))

	index, err := semantic_index.NewSemanticIndex(semantic_index.Config{Provider: semantic_index.ProviderHash})
	require.NoError(t, err)
	storage := context_storage.NewContextStorage(t.TempDir())
	manager := NewContextManager(storage, project_scanner.NewProjectScanner(), index)

	summary, err := manager.ScanProject(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FileCount)
	assert.Equal(t, 1, summary.DirectoryCount)
	assert.Greater(t, summary.IndexedChunks, 0)
	assert.Equal(t, TriggerManual, summary.TriggeredBy)

	stats, err := manager.IndexStats(root)
	require.NoError(t, err)
	assert.Equal(t, summary.IndexedChunks, stats.Documents)

	result, err := manager.Search(context.Background(), root, "invoice line item total", nil)
	require.NoError(t, err)

	var semantic []models.SearchMatch
	for _, match := range result.Matches {
		if match.Type == models.MatchCodeSemantic {
			semantic = append(semantic, match)
		}
	}
	require.NotEmpty(t, semantic)
	assert.Equal(t, "billing/invoice.go", semantic[0].File)
	assert.InDelta(t, float64(semantic[0].Similarity)*100, semantic[0].Relevance, 1e-3)

	// A forced scan rebuilds the collection with the same content
	forced, err := manager.ScanProject(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, summary.IndexedChunks, forced.IndexedChunks)

	require.NoError(t, manager.ForgetProject(context.Background(), root))
	projects, err := manager.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestScanProject_DisabledIndexDegrades(t *testing.T) {
	scanner := &fakeScanner{snapshot: scanmodels.Snapshot{
		Files:       []scanmodels.FileEntry{{Path: "main.go", Name: "main.go"}},
		Directories: []scanmodels.DirectoryEntry{},
		Duration:    1500 * time.Millisecond,
	}}
	manager, _, root := newTestManager(t, scanner)

	summary, err := manager.ScanProject(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FileCount)
	assert.Equal(t, 0, summary.IndexedChunks)
	assert.Equal(t, int64(1500), summary.DurationMs)

	result, err := manager.Search(context.Background(), root, "main", nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "main.go", result.Matches[0].File)
}

func TestGetDevelopmentStatus(t *testing.T) {
	current := testNow
	storage := context_storage.NewContextStorage(t.TempDir(), context_storage.WithClock(func() time.Time { return current }))
	manager := NewContextManager(storage, &fakeScanner{}, disabledIndex(t), WithClock(func() time.Time { return testNow }))
	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	storeSnapshot(t, storage, root, scanmodels.Snapshot{
		Files: []scanmodels.FileEntry{
			{Path: "fresh.go", Name: "fresh.go", Modified: testNow.Add(-24 * time.Hour)},
			{Path: "ancient.go", Name: "ancient.go", Modified: testNow.AddDate(0, -2, 0)},
		},
		ScannedAt: testNow.Add(-time.Hour),
	})

	record := func(at time.Duration, update storagemodels.Update) *storagemodels.LogEntry {
		current = testNow.Add(-at)
		entry, err := manager.UpdateContext(context.Background(), root, update)
		require.NoError(t, err)
		return entry
	}
	record(10*24*time.Hour, storagemodels.Update{Type: storagemodels.UpdateNote, Content: "Old spike"})
	tests := record(3*time.Hour, storagemodels.Update{Type: storagemodels.UpdateTodo, Content: "Write checkout tests"})
	record(2*time.Hour, storagemodels.Update{Type: storagemodels.UpdateNote, Content: "Wired payment form"})
	record(90*time.Minute, storagemodels.Update{Type: storagemodels.UpdateTodo, Content: "Add refunds"})
	record(time.Hour, storagemodels.Update{Type: storagemodels.UpdateDecision, Content: "Use Stripe"})
	record(30*time.Minute, storagemodels.Update{Type: storagemodels.UpdateCompletion, Content: "Checkout tests written", TodoID: tests.ID})

	status, err := manager.GetDevelopmentStatus(context.Background(), root, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultDaysBack, status.DaysBack)
	assert.Equal(t, "active", status.CurrentStatus)
	assert.Equal(t, "No current focus set", status.CurrentFocus)

	contents := func(entries []storagemodels.LogEntry) []string {
		result := make([]string, 0, len(entries))
		for _, entry := range entries {
			result = append(result, entry.Content)
		}
		return result
	}
	assert.Equal(t, []string{"Checkout tests written", "Wired payment form"}, contents(status.RecentActivity))
	assert.Equal(t, []string{"Add refunds"}, contents(status.ActiveTodos))
	assert.Equal(t, []string{"Write checkout tests"}, contents(status.CompletedTodos))
	assert.Equal(t, []string{"Use Stripe"}, contents(status.RecentDecisions))

	require.Len(t, status.RecentlyModified, 1)
	assert.Equal(t, "fresh.go", status.RecentlyModified[0].Path)

	assert.Equal(t, models.StatusSummary{TotalFiles: 2, TotalUpdates: 3, ActiveTodos: 1, CompletedTodos: 1}, status.Summary)
	assert.Equal(t, []string{"Continue with: Add refunds"}, status.NextSteps)
}

func TestGetDevelopmentStatus_NextStepsForIdleProject(t *testing.T) {
	manager, _, root := newTestManager(t, &fakeScanner{})

	status, err := manager.GetDevelopmentStatus(context.Background(), root, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, status.DaysBack)
	assert.Equal(t, []string{
		"No recent activity - consider updating project status",
		"Project context is stale - run scan_project to refresh it",
	}, status.NextSteps)
}
