package semantic_index

import (
	"context"

	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/meysamhadeli/projctx/semantic_index/contracts"
)

// DisabledIndex is used when semantic search is turned off. Every operation reports ErrIndexUnavailable.
type DisabledIndex struct{}

func (DisabledIndex) UpsertChunks(context.Context, string, []models.TextChunk) (int, error) {
	return 0, ErrIndexUnavailable
}

func (DisabledIndex) QuerySimilar(context.Context, string, string, int) ([]contracts.SimilarChunk, error) {
	return nil, ErrIndexUnavailable
}

func (DisabledIndex) DeleteProject(context.Context, string) error {
	return nil
}

func (DisabledIndex) Stats(project string) (contracts.CollectionStats, error) {
	return contracts.CollectionStats{Collection: CollectionName(project), Provider: ProviderNone}, ErrIndexUnavailable
}

func (DisabledIndex) Ping(context.Context) error {
	return ErrIndexUnavailable
}
