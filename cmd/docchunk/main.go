package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pagetext/docchunk/internal/chunker"
	"github.com/pagetext/docchunk/internal/pipeline"
	"github.com/pagetext/docchunk/internal/reader"
)

func main() {
	chunkSize := flag.Int("chunk-size", 2048, "maximum chunk size in characters")
	overlap := flag.Int("overlap", 128, "words repeated from the previous chunk")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	noFallback := flag.Bool("no-pdf-fallback", false, "disable the pdfcpu fallback engine")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <file>...\n\nSplits documents into overlapping chunks with page attribution.\n\nFlags:\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := chunker.Config{ChunkSize: *chunkSize, Overlap: *overlap}
	opts := reader.Options{PDFFallback: !*noFallback}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	for _, path := range flag.Args() {
		chunks, err := pipeline.ExtractChunks(path, cfg, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
		if err := enc.Encode(map[string]any{
			"file":   path,
			"count":  len(chunks),
			"chunks": chunks,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
	}
}
