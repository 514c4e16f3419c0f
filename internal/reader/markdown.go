package reader

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pagetext/docchunk/internal/doc"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// openMarkdown parses a Markdown file with goldmark. Thematic breaks (---)
// separate pages; every other top-level block becomes one block of page text.
// A document without thematic breaks is a single page.
func openMarkdown(path string) (Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown file: %w", err)
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var pages [][]doc.Block
	var current []doc.Block

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if _, ok := n.(*ast.ThematicBreak); ok {
			pages = append(pages, current)
			current = nil
			continue
		}
		if t := nodeText(n, src); t != "" {
			current = append(current, doc.Block{Text: t})
		}
	}
	pages = append(pages, current)

	return &memDocument{pages: pages}, nil
}

// nodeText collects the text of a goldmark AST node. Nodes with children are
// walked for inline text; leaf blocks (code blocks) contribute their raw
// source lines.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.HasChildren() {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
				continue
			}
			if sub := nodeText(c, src); sub != "" {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(sub)
			}
		}
	} else if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	return strings.TrimSpace(buf.String())
}
