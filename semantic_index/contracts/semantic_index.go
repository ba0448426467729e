package contracts

import (
	"context"

	"github.com/meysamhadeli/projctx/project_scanner/models"
)

// SimilarChunk is one ranked result of a similarity query.
type SimilarChunk struct {
	Content    string  `json:"content"`
	FilePath   string  `json:"file_path"`
	Language   string  `json:"language"`
	Kind       string  `json:"kind"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	Similarity float32 `json:"similarity"`
}

// CollectionStats describes one project's collection.
type CollectionStats struct {
	Collection    string `json:"collection"`
	Documents     int    `json:"documents"`
	Provider      string `json:"provider"`
	EmbeddedTexts int64  `json:"embedded_texts"`
	EmbeddedRunes int64  `json:"embedded_runes"`
}

// ISemanticIndex stores chunk embeddings per project and answers similarity queries.
type ISemanticIndex interface {
	// UpsertChunks embeds chunks not yet present and returns how many were added.
	UpsertChunks(ctx context.Context, project string, chunks []models.TextChunk) (int, error)
	QuerySimilar(ctx context.Context, project string, text string, k int) ([]SimilarChunk, error)
	DeleteProject(ctx context.Context, project string) error
	Stats(project string) (CollectionStats, error)
	// Ping checks that the embedding backend is reachable.
	Ping(ctx context.Context) error
}
