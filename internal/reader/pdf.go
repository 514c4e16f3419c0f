package reader

import (
	"fmt"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pagetext/docchunk/internal/doc"
)

// pdfDocument reads pages lazily through ledongthuc/pdf. Each text row on a
// page becomes one block, carrying the row's position and extent.
type pdfDocument struct {
	f      *os.File
	reader *pdflib.Reader
}

// openPDF tries the primary library first and, when enabled, falls back to
// the pdfcpu engine for files it cannot open.
func openPDF(path string, opts Options) (Document, error) {
	d, err := openPDFPrimary(path)
	if err != nil && opts.PDFFallback {
		d, err = openPDFFallback(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return d, nil
}

func openPDFPrimary(path string) (d Document, err error) {
	// The library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf open: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfDocument{f: f, reader: reader}, nil
}

func (d *pdfDocument) NumPages() int { return d.reader.NumPage() }

func (d *pdfDocument) Page(i int) (blocks []doc.Block, err error) {
	// Malformed content streams can panic inside the library.
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
			err = fmt.Errorf("pdf page %d: %v", i+1, r)
		}
	}()

	page := d.reader.Page(i + 1)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("pdf page %d rows: %w", i+1, err)
	}

	for _, row := range rows {
		var sb strings.Builder
		var x, w, h float64
		for j, t := range row.Content {
			if j == 0 {
				x = t.X
				h = t.FontSize
			}
			w += t.W
			frag := strings.TrimSpace(t.S)
			if frag == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(frag)
		}
		if sb.Len() == 0 {
			continue
		}
		blocks = append(blocks, doc.Block{
			X:    x,
			Y:    float64(row.Position),
			W:    w,
			H:    h,
			Text: sb.String(),
		})
	}
	return blocks, nil
}

func (d *pdfDocument) Close() error { return d.f.Close() }
