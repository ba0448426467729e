package contracts

import (
	"context"

	"github.com/meysamhadeli/projctx/project_scanner/models"
)

// IProjectScanner walks a project tree and produces snapshots and indexable chunks.
type IProjectScanner interface {
	ScanProject(ctx context.Context, rootPath string, options models.ScanOptions) (*models.Snapshot, error)
	ExtractChunks(ctx context.Context, rootPath string, snapshot *models.Snapshot) ([]models.TextChunk, error)
	CacheStats() (models.CacheStats, error)
	ClearCache() error
}

// ILanguageStrategy is the per-language capability used by the scanner.
type ILanguageStrategy interface {
	// ExtractImports returns import/dependency identifiers in first-seen order.
	ExtractImports(content string) []string
	// ExtractSemanticChunks carves top-level declarations out of source code.
	ExtractSemanticChunks(content string) []models.SemanticChunk
}
