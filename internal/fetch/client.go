package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// Client downloads remote documents over HTTP for ingestion.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewClient(timeout time.Duration, maxBytes int64) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the document at rawURL to a temporary file and returns its
// path together with a cleanup function that removes it. The file name keeps
// the URL's extension so the format can be detected later; when the URL path
// has none the Content-Type response header is consulted instead.
//
// Transport failures, 429 and 5xx responses return a *RetryableError. Other
// non-200 responses are permanent failures.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, func(), error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", nil, fmt.Errorf("fetch %s: status %d: %s", rawURL, resp.StatusCode, string(respBody))
	}

	ext := path.Ext(u.Path)
	if ext == "" {
		ext = extensionForContentType(resp.Header.Get("Content-Type"))
	}

	f, err := os.CreateTemp("", "fetch-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	written, err := io.Copy(f, io.LimitReader(resp.Body, c.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("download body: %w", err)
	}
	if written > c.maxBytes {
		cleanup()
		return "", nil, fmt.Errorf("document exceeds %d byte limit", c.maxBytes)
	}

	return f.Name(), cleanup, nil
}

// extensionForContentType maps a Content-Type header to a file extension for
// the formats the readers understand. Unknown types map to empty.
func extensionForContentType(contentType string) string {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "application/pdf":
		return ".pdf"
	case "text/html":
		return ".html"
	case "text/markdown":
		return ".md"
	case "text/csv":
		return ".csv"
	case "text/plain":
		return ".txt"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	default:
		return ""
	}
}

// RetryableError indicates a transient failure that can be retried. A zero
// StatusCode means the request never produced a response.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases any resources (currently idle connections).
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
