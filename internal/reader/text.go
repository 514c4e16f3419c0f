package reader

import (
	"fmt"
	"os"
	"strings"

	"github.com/pagetext/docchunk/internal/doc"
)

// openText reads a plain text file. Form feeds separate pages; within a page,
// blank-line-delimited paragraphs become blocks. A file without form feeds is
// a single page.
func openText(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}

	var pages [][]doc.Block
	for _, pageText := range strings.Split(string(data), "\f") {
		pages = append(pages, paragraphBlocks(pageText))
	}
	return &memDocument{pages: pages}, nil
}

// paragraphBlocks splits text into paragraphs on blank lines. Lines holding
// only whitespace count as blank.
func paragraphBlocks(text string) []doc.Block {
	var blocks []doc.Block
	var current []string

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, doc.Block{Text: strings.Join(current, "\n")})
			current = current[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
		} else {
			current = append(current, line)
		}
	}
	flush()

	return blocks
}
