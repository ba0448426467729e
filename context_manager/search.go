package context_manager

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/meysamhadeli/projctx/context_manager/models"
	storagemodels "github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/metrics"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/meysamhadeli/projctx/semantic_index"
	"go.uber.org/zap"
)

// Relevance weights of the structural and log searches.
const (
	nameWeight    = 10
	pathWeight    = 5
	contentWeight = 3
	previewWeight = 2

	similarityScale = 100

	snippetBefore  = 50
	snippetAfter   = 150
	snippetDefault = 200
)

// Search ranks files, log entries and semantically similar chunks of a project against query.
func (m *ContextManager) Search(ctx context.Context, projectPath string, query string, fileTypes []string) (*models.SearchResult, error) {
	root, err := resolve(projectPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidArgument)
	}

	document, err := m.storage.Load(root)
	if err != nil {
		return nil, err
	}
	metrics.RecordSearch()

	needle := strings.ToLower(query)
	result := &models.SearchResult{
		Query:       query,
		Matches:     []models.SearchMatch{},
		Suggestions: []string{},
	}

	result.Matches = append(result.Matches, fileMatches(document.FileStructure.Files, needle, fileTypes)...)
	result.Matches = append(result.Matches, logMatches(document.Development, needle)...)
	result.Matches = append(result.Matches, m.semanticMatches(ctx, root, query)...)

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Relevance > result.Matches[j].Relevance
	})

	if len(result.Matches) == 0 {
		result.Suggestions = suggestions(document)
	}

	logging.Debug("search finished", logging.Project(root), zap.String("query", query), zap.Int("matches", len(result.Matches)))
	return result, nil
}

// relevance scores one item against a lower-cased query.
func relevance(needle string, name string, filePath string, content string, preview string) float64 {
	score := 0
	if name != "" && strings.Contains(strings.ToLower(name), needle) {
		score += nameWeight
	}
	if filePath != "" && strings.Contains(strings.ToLower(filePath), needle) {
		score += pathWeight
	}
	if content != "" && strings.Contains(strings.ToLower(content), needle) {
		score += contentWeight
	}
	if preview != "" && strings.Contains(strings.ToLower(preview), needle) {
		score += previewWeight
	}
	return float64(score)
}

// fileMatches searches names, paths and previews. Markdown files whose preview
// contains the query are reported once, as documentation with a snippet.
func fileMatches(files []scanmodels.FileEntry, needle string, fileTypes []string) []models.SearchMatch {
	allowed := normalizeFileTypes(fileTypes)

	var matches []models.SearchMatch
	for _, file := range files {
		if len(allowed) > 0 && !allowed[strings.ToLower(strings.TrimPrefix(path.Ext(file.Name), "."))] {
			continue
		}

		score := relevance(needle, file.Name, file.Path, "", file.Preview)
		if score == 0 {
			continue
		}

		previewMatched := file.Preview != "" && strings.Contains(strings.ToLower(file.Preview), needle)
		if strings.EqualFold(file.Extension, ".md") && previewMatched {
			matches = append(matches, models.SearchMatch{
				Type:      models.MatchDocumentation,
				File:      file.Path,
				Name:      file.Name,
				Preview:   snippet(file.Preview, needle),
				Language:  file.Language,
				Relevance: score,
				Context:   "Documentation: " + file.Path,
			})
			continue
		}

		matches = append(matches, models.SearchMatch{
			Type:      models.MatchFile,
			File:      file.Path,
			Name:      file.Name,
			Preview:   file.Preview,
			Language:  file.Language,
			Relevance: score,
			Context:   "File: " + file.Path,
		})
	}
	return matches
}

// normalizeFileTypes accepts "go", ".go" and "GO" alike.
func normalizeFileTypes(fileTypes []string) map[string]bool {
	allowed := make(map[string]bool, len(fileTypes))
	for _, fileType := range fileTypes {
		fileType = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileType), "."))
		if fileType != "" {
			allowed[fileType] = true
		}
	}
	return allowed
}

// logMatches searches updates, decisions and todos.
func logMatches(development storagemodels.Development, needle string) []models.SearchMatch {
	var matches []models.SearchMatch
	collect := func(entries []storagemodels.LogEntry, matchType string, label string) {
		for _, entry := range entries {
			if !strings.Contains(strings.ToLower(entry.Content), needle) {
				continue
			}
			timestamp := entry.Timestamp
			matches = append(matches, models.SearchMatch{
				Type:      matchType,
				Content:   entry.Content,
				Timestamp: &timestamp,
				Tags:      entry.Tags,
				Relevance: relevance(needle, "", "", entry.Content, ""),
				Context:   fmt.Sprintf("%s from %s", label, timestamp.Format("2006-01-02")),
			})
		}
	}
	collect(development.Updates, models.MatchDevelopmentUpdate, "Development update")
	collect(development.Decisions, models.MatchDecision, "Decision")
	collect(development.Todos, models.MatchTodo, "Todo")
	return matches
}

// semanticMatches queries the index. Failures degrade to no matches.
func (m *ContextManager) semanticMatches(ctx context.Context, root string, query string) []models.SearchMatch {
	similar, err := m.index.QuerySimilar(ctx, m.storage.ProjectKey(root), query, m.semanticResults)
	if err != nil {
		if errors.Is(err, semantic_index.ErrIndexUnavailable) {
			logging.Debug("semantic index unavailable, skipping semantic search", logging.Project(root))
		} else {
			logging.Warn("semantic search failed", logging.Project(root), logging.Err(err))
		}
		metrics.RecordSemanticFailure("search")
		return nil
	}

	matches := make([]models.SearchMatch, 0, len(similar))
	for _, chunk := range similar {
		matches = append(matches, models.SearchMatch{
			Type:       models.MatchCodeSemantic,
			File:       chunk.FilePath,
			Content:    chunk.Content,
			Language:   chunk.Language,
			ChunkKind:  chunk.Kind,
			StartLine:  chunk.StartLine,
			EndLine:    chunk.EndLine,
			Similarity: chunk.Similarity,
			Relevance:  float64(chunk.Similarity) * similarityScale,
			Context:    fmt.Sprintf("%s in %s", chunk.Kind, chunk.FilePath),
		})
	}
	return matches
}

// snippet cuts the text around the first case-insensitive occurrence of needle.
// Offsets count characters, so the cut never splits a UTF-8 sequence.
func snippet(text string, needle string) string {
	runes := []rune(text)
	width := len([]rune(needle))

	index := indexFold(runes, needle, width)
	if index < 0 {
		if len(runes) > snippetDefault {
			return string(runes[:snippetDefault])
		}
		return text
	}

	start := max(index-snippetBefore, 0)
	end := min(index+width+snippetAfter, len(runes))

	result := string(runes[start:end])
	if start > 0 {
		result = "..." + result
	}
	if end < len(runes) {
		result += "..."
	}
	return result
}

// indexFold returns the rune offset of the first window of width runes equal to needle under case folding.
func indexFold(runes []rune, needle string, width int) int {
	if width == 0 {
		return -1
	}
	for i := 0; i+width <= len(runes); i++ {
		if strings.EqualFold(string(runes[i:i+width]), needle) {
			return i
		}
	}
	return -1
}

// suggestions proposes follow-up searches when nothing matched.
func suggestions(document *storagemodels.Document) []string {
	result := []string{}
	if language := topLanguage(document.CodeAnalysis.Languages); language != "" {
		result = append(result, fmt.Sprintf("Search in %s files", language))
	}
	if len(document.ImportantFiles) > 0 {
		result = append(result, "Check "+document.ImportantFiles[0].Name)
	}
	if len(document.Development.Updates) > 0 {
		result = append(result, "Search recent development updates")
	}
	return result
}

// topLanguage returns the most frequent known language, ties broken alphabetically.
func topLanguage(languages map[string]int) string {
	best, bestCount := "", 0
	for language, count := range languages {
		if language == "" || language == "unknown" {
			continue
		}
		if count > bestCount || (count == bestCount && language < best) {
			best, bestCount = language, count
		}
	}
	return best
}
