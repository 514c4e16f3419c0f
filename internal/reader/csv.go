package reader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/pagetext/docchunk/internal/doc"
)

// openCSV reads a CSV file as a single page with one block per data row. The
// first record supplies column headers and each row renders as comma-joined
// "header: value" pairs.
func openCSV(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var blocks []doc.Block
	if len(records) > 1 {
		headers := records[0]
		for _, row := range records[1:] {
			var sb strings.Builder
			for j, cell := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				if j < len(headers) {
					sb.WriteString(headers[j] + ": " + cell)
				} else {
					sb.WriteString(cell)
				}
			}
			blocks = append(blocks, doc.Block{Text: sb.String()})
		}
	}

	return &memDocument{pages: [][]doc.Block{blocks}}, nil
}
