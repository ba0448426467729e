package project_scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/metrics"
	"github.com/meysamhadeli/projctx/project_scanner/contracts"
	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/meysamhadeli/projctx/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	// Text files below this size are read for previews, front-matter and imports.
	maxAnalyzedFileSize = 50 * 1024
	previewLength       = 500
)

// ErrProjectNotFound is returned when the scan root does not exist or is not a directory.
var ErrProjectNotFound = errors.New("project path not found")

// ProjectScanner walks project trees and derives snapshots from them.
type ProjectScanner struct {
	cacheManager *CacheManager
	chunkSize    int
	chunkOverlap int
	workers      int
}

// Option configures a ProjectScanner.
type Option func(*ProjectScanner)

// WithCache enables the on-disk file analysis cache.
func WithCache(cacheManager *CacheManager) Option {
	return func(s *ProjectScanner) {
		s.cacheManager = cacheManager
	}
}

// WithChunking overrides the window size and overlap used by ExtractChunks.
func WithChunking(size int, overlap int) Option {
	return func(s *ProjectScanner) {
		s.chunkSize = size
		s.chunkOverlap = overlap
	}
}

// WithWorkers bounds the number of files analyzed concurrently.
func WithWorkers(workers int) Option {
	return func(s *ProjectScanner) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// NewProjectScanner initializes a new ProjectScanner.
func NewProjectScanner(options ...Option) contracts.IProjectScanner {
	scanner := &ProjectScanner{
		chunkSize:    1500,
		chunkOverlap: 200,
		workers:      runtime.NumCPU(),
	}
	for _, option := range options {
		option(scanner)
	}
	return scanner
}

// ScanProject walks rootPath and builds a snapshot of its files, directories and hints.
// Only a missing root is fatal; unreadable entries are recorded and skipped.
func (s *ProjectScanner) ScanProject(ctx context.Context, rootPath string, options models.ScanOptions) (*models.Snapshot, error) {
	started := time.Now()

	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, rootPath)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, rootPath)
	}

	rules, err := utils.LoadIgnoreRules(root)
	if err != nil {
		logging.Warn("failed to load .gitignore, using default ignore rules", logging.Project(root), logging.Err(err))
		rules = utils.NewIgnoreRules(utils.DefaultIgnorePatterns)
	}

	snapshot := &models.Snapshot{
		Project:     DetectProjectInfo(root),
		TriggeredBy: options.TriggeredBy,
	}

	var filePaths []string
	err = filepath.WalkDir(root, func(fullPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if fullPath == root {
				return walkErr
			}
			logging.Warn("skipping unreadable entry", logging.Path(fullPath), logging.Err(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fullPath == root {
			return nil
		}

		relativePath, err := filepath.Rel(root, fullPath)
		if err != nil {
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		if rules.Match(relativePath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			snapshot.Directories = append(snapshot.Directories, models.DirectoryEntry{Path: relativePath, Name: d.Name()})
			return nil
		}

		// Symlinks, sockets and devices are not followed
		if !d.Type().IsRegular() {
			return nil
		}

		filePaths = append(filePaths, relativePath)
		return ctx.Err()
	})
	if err != nil {
		metrics.RecordScan(snapshot.Project.Name, options.TriggeredBy, 0, time.Since(started), err)
		return nil, fmt.Errorf("failed to walk project %s: %w", root, err)
	}

	files := make([]models.FileEntry, len(filePaths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, relativePath := range filePaths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			files[i] = s.analyzeFile(root, relativePath, options.ForceRefresh)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		metrics.RecordScan(snapshot.Project.Name, options.TriggeredBy, 0, time.Since(started), err)
		return nil, fmt.Errorf("failed to analyze project %s: %w", root, err)
	}
	snapshot.Files = files

	languages := make(map[string]int)
	for _, file := range files {
		languages[file.Language]++
		if IsImportantFile(file.Name) {
			snapshot.ImportantFiles = append(snapshot.ImportantFiles, models.ImportantFile{
				Path:     file.Path,
				Name:     file.Name,
				Language: file.Language,
				Size:     file.Size,
			})
		}
	}
	snapshot.CodeAnalysis = models.CodeAnalysis{
		Languages:  languages,
		Frameworks: DetectFrameworks(files),
		Patterns:   DetectPatterns(snapshot.Directories),
	}

	snapshot.ScannedAt = time.Now().UTC()
	snapshot.Duration = time.Since(started)

	metrics.RecordScan(snapshot.Project.Name, options.TriggeredBy, len(files), snapshot.Duration, nil)
	logging.Info("scan completed",
		logging.Project(root),
		zap.Int("files", snapshot.FileCount()),
		zap.Int("directories", snapshot.DirectoryCount()),
		zap.Duration("duration", snapshot.Duration),
		zap.String("trigger", options.TriggeredBy),
	)

	return snapshot, nil
}

// analyzeFile builds the entry for one file. Failures are recorded on the entry.
func (s *ProjectScanner) analyzeFile(root string, relativePath string, forceRefresh bool) models.FileEntry {
	name := path.Base(relativePath)
	ext := strings.ToLower(filepath.Ext(name))

	entry := models.FileEntry{
		Path:      relativePath,
		Name:      name,
		Extension: ext,
		MimeType:  DetectMimeType(name),
		Language:  DetectLanguage(name),
	}
	entry.IsText = IsTextFile(entry.MimeType, ext)

	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	info, err := os.Stat(fullPath)
	if err != nil {
		entry.ReadError = err.Error()
		return entry
	}
	entry.Size = info.Size()
	entry.Modified = info.ModTime().UTC()

	if !entry.IsText || info.Size() >= maxAnalyzedFileSize {
		return entry
	}

	analysis, err := s.analysisFor(fullPath, info, entry, forceRefresh)
	if err != nil {
		entry.ReadError = err.Error()
		return entry
	}

	entry.Preview = analysis.Preview
	entry.Imports = analysis.Imports
	if analysis.FrontMatterSource != "" {
		entry.FrontMatter = parseFrontMatter(analysis.FrontMatterSource)
	}
	return entry
}

// analysisFor returns the cached analysis when the file is unchanged, otherwise reads the file.
func (s *ProjectScanner) analysisFor(fullPath string, info fs.FileInfo, entry models.FileEntry, forceRefresh bool) (*FileAnalysis, error) {
	if s.cacheManager != nil && !forceRefresh {
		if cached, found := s.cacheManager.Get(fullPath, info); found {
			return cached, nil
		}
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}
	content := toValidText(data)

	analysis := &FileAnalysis{Preview: truncateRunes(content, previewLength)}
	if IsMarkdownFile(entry.Extension) {
		analysis.FrontMatterSource = extractFrontMatter(content)
	}
	if IsCodeFile(entry.Extension) {
		analysis.Imports = StrategyFor(entry.Language).ExtractImports(content)
	}

	if s.cacheManager != nil {
		if err := s.cacheManager.Set(fullPath, info, *analysis); err != nil {
			logging.Debug("failed to cache file analysis", logging.Path(fullPath), logging.Err(err))
		}
	}
	return analysis, nil
}

// extractFrontMatter returns the YAML block between leading "---" fences, or "".
func extractFrontMatter(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return ""
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r ") == "---" {
			return strings.Join(lines[1:i], "\n")
		}
	}
	return ""
}

// parseFrontMatter decodes a YAML mapping; malformed or empty blocks yield nil.
func parseFrontMatter(source string) map[string]interface{} {
	var data map[string]interface{}
	if err := yaml.Unmarshal([]byte(source), &data); err != nil || len(data) == 0 {
		return nil
	}
	return data
}

func toValidText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func truncateRunes(text string, limit int) string {
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// CacheStats returns the analysis cache statistics.
func (s *ProjectScanner) CacheStats() (models.CacheStats, error) {
	if s.cacheManager == nil {
		return models.CacheStats{}, nil
	}
	return s.cacheManager.Stats()
}

// ClearCache empties the analysis cache.
func (s *ProjectScanner) ClearCache() error {
	if s.cacheManager == nil {
		return nil
	}
	return s.cacheManager.ClearCache()
}
