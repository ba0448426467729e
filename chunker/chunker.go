package chunker

import "unicode"

const (
	// DefaultMaxSize is the window size used for indexing file content.
	DefaultMaxSize = 1500
	// DefaultOverlap is the number of characters shared by consecutive windows.
	DefaultOverlap = 200
)

// Span marks a half-open rune range [Start, End) of the chunked text.
type Span struct {
	Start int
	End   int
}

// Chunk splits text into overlapping windows of at most maxSize characters.
// Window boundaries are moved back to the last newline, or failing that the last
// space, when one exists past the middle of the window.
func Chunk(text string, maxSize int, overlap int) []string {
	runes := []rune(text)
	spans := spansOf(runes, maxSize, overlap)

	chunks := make([]string, 0, len(spans))
	for _, span := range spans {
		chunks = append(chunks, string(runes[span.Start:span.End]))
	}
	return chunks
}

// Spans returns the rune ranges Chunk would cut from text.
func Spans(text string, maxSize int, overlap int) []Span {
	return spansOf([]rune(text), maxSize, overlap)
}

func spansOf(runes []rune, maxSize int, overlap int) []Span {
	maxSize, overlap = normalize(maxSize, overlap)

	total := len(runes)
	if total <= maxSize {
		return []Span{{Start: 0, End: total}}
	}

	var spans []Span
	start, prevEnd := 0, 0
	for start < total {
		end := start + maxSize
		if end >= total {
			spans = append(spans, Span{Start: start, End: total})
			break
		}

		// Windows always end after their predecessor.
		if snapped := snapBoundary(runes, start, end, maxSize); snapped > prevEnd {
			end = snapped
		}
		spans = append(spans, Span{Start: start, End: end})
		prevEnd = end

		next := max(start+maxSize-overlap, end-overlap)
		// A window that snapped back must not leave a gap before the next one.
		start = min(next, end)
	}

	return spans
}

// snapBoundary looks for a newline, then a space, strictly past the window midpoint.
// The boundary character itself starts the next window.
func snapBoundary(runes []rune, start int, end int, maxSize int) int {
	midpoint := start + maxSize/2

	for i := end; i > midpoint; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	for i := end; i > midpoint; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end
}

func normalize(maxSize int, overlap int) (int, int) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= maxSize {
		overlap = maxSize - 1
	}
	return maxSize, overlap
}
