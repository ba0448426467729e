package project_scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/meysamhadeli/projctx/chunker"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/zeebo/xxh3"
)

const (
	maxIndexedFileSize     = 500 * 1024
	minWindowChunkLength   = 100
	minSemanticChunkLength = 150
)

var skippedIndexExtensions = map[string]bool{
	".log":  true,
	".lock": true,
	".md5":  true,
	".sha1": true,
}

// ExtractChunks reads indexable files of a snapshot and cuts them into chunks:
// overlapping windows for every file plus whole declarations for code files.
// Files that cannot be read are skipped.
func (s *ProjectScanner) ExtractChunks(ctx context.Context, rootPath string, snapshot *models.Snapshot) ([]models.TextChunk, error) {
	if snapshot == nil {
		return nil, nil
	}

	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, rootPath)
	}

	var chunks []models.TextChunk
	for _, file := range snapshot.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ShouldIndex(file) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file.Path)))
		if err != nil {
			logging.Warn("skipping file for indexing", logging.Path(file.Path), logging.Err(err))
			continue
		}
		chunks = append(chunks, s.chunkFile(file, toValidText(data))...)
	}
	return chunks, nil
}

// chunkFile splits one file's content into window and semantic chunks.
func (s *ProjectScanner) chunkFile(file models.FileEntry, content string) []models.TextChunk {
	kind := ChunkKindOf(file)
	runes := []rune(content)
	lines := newLineIndex(runes)

	var chunks []models.TextChunk
	for _, span := range chunker.Spans(content, s.chunkSize, s.chunkOverlap) {
		text := string(runes[span.Start:span.End])
		if utf8.RuneCountInString(strings.TrimSpace(text)) <= minWindowChunkLength {
			continue
		}
		startLine := lines.lineAt(span.Start)
		chunks = append(chunks, newTextChunk(file, kind, models.UnitWindow, text, startLine, startLine+strings.Count(strings.TrimRight(text, "\n"), "\n")))
	}

	if IsCodeFile(file.Extension) {
		for _, semantic := range StrategyFor(file.Language).ExtractSemanticChunks(content) {
			text := strings.TrimSpace(semantic.Content)
			if utf8.RuneCountInString(text) <= minSemanticChunkLength {
				continue
			}
			chunks = append(chunks, newTextChunk(file, kind, semantic.Unit, text, semantic.StartLine, semantic.EndLine))
		}
	}
	return chunks
}

func newTextChunk(file models.FileEntry, kind models.ChunkKind, unit models.ChunkUnit, content string, startLine, endLine int) models.TextChunk {
	return models.TextChunk{
		Content:   content,
		FilePath:  file.Path,
		Language:  file.Language,
		Kind:      kind,
		Unit:      unit,
		StartLine: startLine,
		EndLine:   endLine,
		Hash:      ChunkHash(file.Path, content),
	}
}

// ChunkHash identifies chunk content within a file.
func ChunkHash(filePath string, content string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(filePath+"\x00"+content))
}

// ShouldIndex reports whether a file is sent to the semantic index.
func ShouldIndex(file models.FileEntry) bool {
	if !file.IsText || file.ReadError != "" {
		return false
	}
	if file.Size > maxIndexedFileSize {
		return false
	}
	return !skippedIndexExtensions[file.Extension]
}

// ChunkKindOf classifies a file's chunks by extension and name.
func ChunkKindOf(file models.FileEntry) models.ChunkKind {
	switch {
	case IsMarkdownFile(file.Extension):
		return models.ChunkDocumentation
	case file.Extension == ".json":
		return models.ChunkConfig
	case strings.Contains(strings.ToLower(file.Name), "test"):
		return models.ChunkTest
	case IsCodeFile(file.Extension):
		return models.ChunkCode
	default:
		return models.ChunkText
	}
}

// lineIndex maps rune offsets to 1-based line numbers.
type lineIndex struct {
	newlinesBefore []int
}

func newLineIndex(runes []rune) lineIndex {
	counts := make([]int, len(runes)+1)
	for i, r := range runes {
		counts[i+1] = counts[i]
		if r == '\n' {
			counts[i+1]++
		}
	}
	return lineIndex{newlinesBefore: counts}
}

func (index lineIndex) lineAt(offset int) int {
	return index.newlinesBefore[offset] + 1
}
