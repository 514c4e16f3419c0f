package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pagetext/docchunk/internal/doc"
)

// pdfcpuDocument is the fallback PDF engine. Page text is decoded from the
// raw content stream operators, so it tolerates files the primary library
// rejects at the cost of cruder block boundaries: each decoded line is one
// block without geometry.
type pdfcpuDocument struct {
	f   *os.File
	ctx *model.Context
}

func openPDFFallback(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf file: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	return &pdfcpuDocument{f: f, ctx: ctx}, nil
}

func (d *pdfcpuDocument) NumPages() int { return d.ctx.PageCount }

func (d *pdfcpuDocument) Page(i int) ([]doc.Block, error) {
	r, err := pdfcpu.ExtractPageContent(d.ctx, i+1)
	if err != nil {
		return nil, fmt.Errorf("pdf page %d content: %w", i+1, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pdf page %d content: %w", i+1, err)
	}

	var blocks []doc.Block
	for _, line := range strings.Split(contentStreamText(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, doc.Block{Text: line})
	}
	return blocks, nil
}

func (d *pdfcpuDocument) Close() error { return d.f.Close() }

// pdfStringRe matches PDF string literals, including escaped parentheses.
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// contentStreamText walks the content stream operators that show text
// (Tj, TJ, ') and the positioning operators that imply separators (Td, TD,
// T*), accumulating a printable approximation of the page.
func contentStreamText(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return cleanStreamText(sb.String())
}

// decodePDFString resolves the escape sequences of a PDF string literal,
// including octal escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				break
			}
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// cleanStreamText drops non-printable runes and collapses horizontal
// whitespace runs, keeping line breaks as block separators.
func cleanStreamText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
