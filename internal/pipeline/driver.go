package pipeline

import (
	"fmt"

	"github.com/pagetext/docchunk/internal/chunker"
	"github.com/pagetext/docchunk/internal/doc"
	"github.com/pagetext/docchunk/internal/pagetext"
	"github.com/pagetext/docchunk/internal/reader"
)

// ExtractPages opens the document at path and returns one entry per source
// page, in order, holding the cleaned page text. A page whose block
// extraction fails contributes an empty page so numbering stays aligned with
// the source.
func ExtractPages(path string, opts reader.Options) ([]doc.Page, error) {
	d, err := reader.OpenWithOptions(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer d.Close()

	pages := make([]doc.Page, 0, d.NumPages())
	for i := 0; i < d.NumPages(); i++ {
		text := ""
		if blocks, err := d.Page(i); err == nil {
			text = pagetext.FromBlocks(blocks)
		}
		pages = append(pages, doc.Page{Number: i + 1, Text: text})
	}
	return pages, nil
}

// ExtractChunks runs the whole extraction for one document: open, collect
// page texts, split once.
func ExtractChunks(path string, cfg chunker.Config, opts reader.Options) ([]doc.Chunk, error) {
	pages, err := ExtractPages(path, opts)
	if err != nil {
		return nil, err
	}
	return chunker.Split(pages, cfg), nil
}
