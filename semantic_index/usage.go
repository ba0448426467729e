package semantic_index

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/philippgille/chromem-go"
)

// embeddingUsage counts the texts and runes sent to the embedding function.
type embeddingUsage struct {
	mutex sync.Mutex
	texts int64
	runes int64
}

func (u *embeddingUsage) wrap(embed chromem.EmbeddingFunc) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		u.mutex.Lock()
		u.texts++
		u.runes += int64(utf8.RuneCountInString(text))
		u.mutex.Unlock()
		return embed(ctx, text)
	}
}

func (u *embeddingUsage) snapshot() (texts int64, runes int64) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.texts, u.runes
}
