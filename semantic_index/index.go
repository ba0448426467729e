package semantic_index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/metrics"
	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/meysamhadeli/projctx/semantic_index/contracts"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const (
	ProviderHash   = "hash"
	ProviderOllama = "ollama"
	ProviderNone   = "none"

	maxCollectionName = 63
)

// ErrIndexUnavailable is returned when the index is disabled or its embedding backend cannot be reached.
var ErrIndexUnavailable = errors.New("semantic index unavailable")

// Config selects the embedding provider and storage of the index.
type Config struct {
	Provider string
	// PersistDir keeps collections on disk when set; otherwise they live in memory.
	PersistDir string
	BaseURL    string
	Model      string
}

// collectionEntry is a registered collection with the ids already stored in it.
type collectionEntry struct {
	collection *chromem.Collection
	known      map[string]bool
}

// ChromemIndex keeps one chromem collection per project in an explicit registry.
type ChromemIndex struct {
	db       *chromem.DB
	embed    chromem.EmbeddingFunc
	provider string
	usage    *embeddingUsage
	ping     func(ctx context.Context) error

	mutex       sync.Mutex
	collections map[string]*collectionEntry
}

// NewSemanticIndex builds the index for the configured provider.
func NewSemanticIndex(cfg Config) (contracts.ISemanticIndex, error) {
	var (
		embed chromem.EmbeddingFunc
		ping  func(ctx context.Context) error
	)

	switch strings.ToLower(cfg.Provider) {
	case ProviderNone:
		return &DisabledIndex{}, nil
	case ProviderOllama:
		embedder := NewOllamaEmbedder(&OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model})
		embed = embedder.Embed
		ping = embedder.Ping
	case ProviderHash, "":
		embed = NewHashEmbedder(defaultHashDimensions).Embed
	default:
		return nil, fmt.Errorf("unknown semantic index provider %q", cfg.Provider)
	}

	db := chromem.NewDB()
	if cfg.PersistDir != "" {
		persistent, err := chromem.NewPersistentDB(cfg.PersistDir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open semantic index at %s: %w", cfg.PersistDir, err)
		}
		db = persistent
	}

	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderHash
	}
	return newChromemIndex(db, embed, provider, ping), nil
}

func newChromemIndex(db *chromem.DB, embed chromem.EmbeddingFunc, provider string, ping func(ctx context.Context) error) *ChromemIndex {
	usage := &embeddingUsage{}
	return &ChromemIndex{
		db:          db,
		embed:       usage.wrap(embed),
		provider:    provider,
		usage:       usage,
		ping:        ping,
		collections: make(map[string]*collectionEntry),
	}
}

// CollectionName maps a project name onto the characters allowed in collection names.
func CollectionName(project string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(project) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
		if builder.Len() == maxCollectionName {
			break
		}
	}
	name := builder.String()
	if name == "" {
		return "default"
	}
	return name
}

// DocumentID identifies a chunk within a project's collection.
func DocumentID(project string, chunk models.TextChunk) string {
	return CollectionName(project) + "_" + chunk.Hash
}

// collectionFor returns the registered collection, creating it on first use.
func (idx *ChromemIndex) collectionFor(project string) (*collectionEntry, error) {
	name := CollectionName(project)

	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	if entry, ok := idx.collections[name]; ok {
		return entry, nil
	}
	collection, err := idx.db.GetOrCreateCollection(name, map[string]string{"project": project}, idx.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	entry := &collectionEntry{collection: collection, known: make(map[string]bool)}
	idx.collections[name] = entry
	return entry, nil
}

// UpsertChunks embeds and stores the chunks whose ids are not in the collection yet.
func (idx *ChromemIndex) UpsertChunks(ctx context.Context, project string, chunks []models.TextChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	entry, err := idx.collectionFor(project)
	if err != nil {
		return 0, err
	}

	idx.mutex.Lock()
	documents := make([]chromem.Document, 0, len(chunks))
	pending := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		id := DocumentID(project, chunk)
		if entry.known[id] || pending[id] {
			continue
		}
		pending[id] = true
		documents = append(documents, chromem.Document{
			ID:      id,
			Content: chunk.Content,
			Metadata: map[string]string{
				"file_path":  chunk.FilePath,
				"language":   chunk.Language,
				"kind":       string(chunk.Kind),
				"unit":       string(chunk.Unit),
				"start_line": strconv.Itoa(chunk.StartLine),
				"end_line":   strconv.Itoa(chunk.EndLine),
			},
		})
	}
	idx.mutex.Unlock()

	if len(documents) == 0 {
		return 0, nil
	}

	if err := entry.collection.AddDocuments(ctx, documents, runtime.NumCPU()); err != nil {
		metrics.RecordSemanticFailure("upsert")
		return 0, fmt.Errorf("failed to index chunks for %s: %w", project, err)
	}

	idx.mutex.Lock()
	for id := range pending {
		entry.known[id] = true
	}
	idx.mutex.Unlock()

	metrics.RecordIndexedChunks(len(documents))
	logging.Debug("indexed chunks", zap.String("project", project), zap.Int("chunks", len(documents)))
	return len(documents), nil
}

// QuerySimilar returns up to k chunks ranked by similarity to text.
func (idx *ChromemIndex) QuerySimilar(ctx context.Context, project string, text string, k int) ([]contracts.SimilarChunk, error) {
	if strings.TrimSpace(text) == "" || k <= 0 {
		return []contracts.SimilarChunk{}, nil
	}

	entry, err := idx.collectionFor(project)
	if err != nil {
		return nil, err
	}

	count := entry.collection.Count()
	if count == 0 {
		return []contracts.SimilarChunk{}, nil
	}
	if k > count {
		k = count
	}

	results, err := entry.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		metrics.RecordSemanticFailure("query")
		return nil, fmt.Errorf("failed to query collection for %s: %w", project, err)
	}

	similar := make([]contracts.SimilarChunk, 0, len(results))
	for _, result := range results {
		startLine, _ := strconv.Atoi(result.Metadata["start_line"])
		endLine, _ := strconv.Atoi(result.Metadata["end_line"])
		similar = append(similar, contracts.SimilarChunk{
			Content:    result.Content,
			FilePath:   result.Metadata["file_path"],
			Language:   result.Metadata["language"],
			Kind:       result.Metadata["kind"],
			StartLine:  startLine,
			EndLine:    endLine,
			Similarity: result.Similarity,
		})
	}
	return similar, nil
}

// DeleteProject drops the project's collection and removes it from the registry.
func (idx *ChromemIndex) DeleteProject(_ context.Context, project string) error {
	name := CollectionName(project)

	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	delete(idx.collections, name)
	if err := idx.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// Stats reports the size of the project's collection and the embedding usage of the index.
func (idx *ChromemIndex) Stats(project string) (contracts.CollectionStats, error) {
	entry, err := idx.collectionFor(project)
	if err != nil {
		return contracts.CollectionStats{}, err
	}
	texts, runes := idx.usage.snapshot()
	return contracts.CollectionStats{
		Collection:    CollectionName(project),
		Documents:     entry.collection.Count(),
		Provider:      idx.provider,
		EmbeddedTexts: texts,
		EmbeddedRunes: runes,
	}, nil
}

// Ping checks the embedding backend; local providers are always reachable.
func (idx *ChromemIndex) Ping(ctx context.Context) error {
	if idx.ping == nil {
		return nil
	}
	return idx.ping(ctx)
}
