package chunker

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/pagetext/docchunk/internal/doc"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize int // Maximum chunk size in characters.
	Overlap   int // Words repeated from the previous chunk. 0 disables overlap.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 2048,
		Overlap:   128,
	}
}

// Split walks the pages in order and accumulates whitespace-delimited words
// into chunks of at most ChunkSize characters. When a word would overflow the
// current chunk, the chunk is emitted and the next one starts with the last
// Overlap words of the emitted text followed by the overflowing word. Each
// chunk carries the distinct page numbers registered while it accumulated, in
// first-seen order. After an overflow the page list restarts from the most
// recently registered page, so overlap words keep that page's attribution
// even when they originated earlier.
//
// ChunkSize counts characters, not bytes. A single word longer than ChunkSize
// is never split; it lands whole in an oversized chunk.
func Split(pages []doc.Page, cfg Config) []doc.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 2048
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 128
	}

	var chunks []doc.Chunk
	current := ""
	curLen := 0 // length of current in characters
	var currentPages []int

	for _, page := range pages {
		for _, word := range strings.Fields(page.Text) {
			if curLen+utf8.RuneCountInString(word)+1 > cfg.ChunkSize && current != "" {
				chunks = append(chunks, doc.Chunk{
					Text:  strings.TrimSpace(current),
					Pages: currentPages,
				})
				words := strings.Fields(current)
				keep := cfg.Overlap
				if keep > len(words) {
					keep = len(words)
				}
				current = strings.Join(words[len(words)-keep:], " ") + " " + word + " "
				curLen = utf8.RuneCountInString(current)
				currentPages = []int{currentPages[len(currentPages)-1]}
			} else {
				current += word + " "
				curLen += utf8.RuneCountInString(word) + 1
			}
			if !slices.Contains(currentPages, page.Number) {
				currentPages = append(currentPages, page.Number)
			}
		}
	}

	if current != "" {
		chunks = append(chunks, doc.Chunk{
			Text:  strings.TrimSpace(current),
			Pages: currentPages,
		})
	}

	return chunks
}
