package doc

// Block is one rectangular region of extracted text on a document page.
// Coordinates are filled where the source engine reports them and zero
// otherwise; only Text feeds the chunking pass.
type Block struct {
	X    float64 // Region origin, horizontal
	Y    float64 // Region origin, vertical
	W    float64 // Region extent, horizontal (0 if N/A)
	H    float64 // Region extent, vertical (0 if N/A)
	Text string  // Extracted text content
}

// Page associates a 1-based source page number with its cleaned text.
type Page struct {
	Number int    // Page number as it appears in the source document
	Text   string // Normalized, space-joined page text
}

// Chunk is a sized text segment tagged with the pages its words came from.
// Pages holds distinct page numbers in first-seen order.
type Chunk struct {
	Text  string `json:"text"`
	Pages []int  `json:"pages"`
}
