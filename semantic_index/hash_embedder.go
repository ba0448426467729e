package semantic_index

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
)

const defaultHashDimensions = 384

// HashEmbedder maps text onto a fixed-size vector by feature hashing of its
// words and character trigrams. It needs no model and is deterministic.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates an embedder producing vectors of the given size.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns an L2-normalised vector. Text without features maps to a fixed unit vector.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, h.dimensions)

	for _, token := range tokenize(text) {
		h.add(vector, "w:"+token, 1.0)
		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			h.add(vector, "t:"+string(runes[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, value := range vector {
		norm += float64(value) * float64(value)
	}
	if norm == 0 {
		vector[0] = 1
		return vector, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector, nil
}

func (h *HashEmbedder) add(vector []float32, feature string, weight float32) {
	sum := xxh3.HashString(feature)
	bucket := int(sum % uint64(h.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vector[bucket] += weight
}

// tokenize lower-cases text and splits it into words, breaking camelCase and snake_case identifiers.
func tokenize(text string) []string {
	var (
		tokens  []string
		current []rune
		prev    rune
	)
	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && unicode.IsLower(prev) {
				flush()
			}
			current = append(current, r)
		default:
			flush()
		}
		prev = r
	}
	flush()
	return tokens
}
