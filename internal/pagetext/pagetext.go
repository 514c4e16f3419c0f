package pagetext

import (
	"strings"

	"github.com/pagetext/docchunk/internal/doc"
)

// NormalizeBlock cleans spurious intra-word spacing in one block of raw text.
// Some layout engines emit single spaces between letters of a word and double
// spaces between actual words. When the text contains a double-space run it is
// split on the two-space delimiter, all whitespace inside each segment is
// removed, and the segments are rejoined with single spaces. Text without a
// double space is returned unchanged. The heuristic is lossy on purpose.
func NormalizeBlock(text string) string {
	if !strings.Contains(text, "  ") {
		return text
	}
	segments := strings.Split(text, "  ")
	for i, seg := range segments {
		segments[i] = strings.Join(strings.Fields(seg), "")
	}
	return strings.Join(segments, " ")
}

// FromBlocks builds one page string from the page's raw blocks: each block's
// text is normalized, empty results are dropped, and the survivors are joined
// with single spaces. A page with no usable blocks yields "".
func FromBlocks(blocks []doc.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		cleaned := NormalizeBlock(b.Text)
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
