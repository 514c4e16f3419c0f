package reader

import "testing"

func TestHTMLReader_ExtractsContentElements(t *testing.T) {
	input := `<html><body>
<h1>Welcome</h1>
<p>First paragraph.</p>
<ul><li>item one</li><li>item two</li></ul>
</body></html>`
	path := writeFile(t, t.TempDir(), "page.html", input)

	d, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	if d.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", d.NumPages())
	}
	blocks, err := d.Page(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Welcome", "First paragraph.", "item one", "item two"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %v", len(want), len(blocks), blocks)
	}
	for i, w := range want {
		if blocks[i].Text != w {
			t.Errorf("block %d: expected %q, got %q", i, w, blocks[i].Text)
		}
	}
}

func TestHTMLReader_SkipsChrome(t *testing.T) {
	input := `<html><head><style>body { color: red; }</style></head><body>
<nav><p>menu entry</p></nav>
<script>console.log("hi");</script>
<p>Visible content.</p>
<footer><p>copyright</p></footer>
</body></html>`
	path := writeFile(t, t.TempDir(), "chrome.html", input)

	d, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	blocks, err := d.Page(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %v", len(blocks), blocks)
	}
	if blocks[0].Text != "Visible content." {
		t.Errorf("expected %q, got %q", "Visible content.", blocks[0].Text)
	}
}

func TestHTMLReader_NestedInlineMarkup(t *testing.T) {
	input := `<html><body><p>Text with <b>bold</b> and <a href="#">a link</a>.</p></body></html>`
	path := writeFile(t, t.TempDir(), "inline.html", input)

	d, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	blocks, err := d.Page(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "Text with bold and a link." {
		t.Errorf("expected %q, got %q", "Text with bold and a link.", blocks[0].Text)
	}
}
