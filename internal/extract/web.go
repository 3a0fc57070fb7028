package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"subject-tutor/internal/contextutil"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxBytes     = 5 << 20
	userAgent           = "subject-tutor/1.0 (+study assistant)"
)

// WebPage is the readable content of a fetched URL.
type WebPage struct {
	URL   string
	Host  string
	Title string
	Text  string
}

// FetcherConfig configures a Fetcher. Zero values select defaults.
type FetcherConfig struct {
	Timeout       time.Duration
	RatePerSecond float64
	MaxBytes      int64
	HTTPClient    *http.Client
}

// Fetcher downloads web pages and converts them to plain text.
// Requests are throttled with a token bucket shared by all callers.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewFetcher creates a new Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		maxBytes: maxBytes,
	}
}

// ValidateURL checks that raw is an absolute http or https URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// Fetch downloads rawURL and returns its text. HTML, Markdown and plain text
// are supported; any other content type fails with ErrUnsupportedContent.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (WebPage, error) {
	logger := contextutil.LoggerFromContext(ctx)

	u, err := ValidateURL(rawURL)
	if err != nil {
		return WebPage{}, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return WebPage{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return WebPage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, text/markdown;q=0.9, text/plain;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return WebPage{}, fmt.Errorf("failed to fetch %s: %w", u.String(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return WebPage{}, fmt.Errorf("bad status %d fetching %s", resp.StatusCode, u.String())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return WebPage{}, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return WebPage{}, fmt.Errorf("%w: more than %d bytes", ErrContentTooLarge, f.maxBytes)
	}

	page := WebPage{URL: u.String(), Host: u.Hostname()}
	switch kind := contentKind(resp.Header.Get("Content-Type"), u.Path); kind {
	case "html":
		page.Title, page.Text, err = HTMLToText(bytes.NewReader(body))
		if err != nil {
			return WebPage{}, err
		}
	case "markdown":
		page.Title, page.Text = MarkdownToText(body)
	case "text":
		page.Text = strings.TrimSpace(string(body))
	default:
		return WebPage{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, resp.Header.Get("Content-Type"))
	}

	logger.InfoContext(ctx, "fetched url",
		"url", page.URL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"text_length", len(page.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return page, nil
}

// contentKind maps a Content-Type header to a converter. Plain text served
// from a .md path is treated as Markdown.
func contentKind(contentType, urlPath string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/markdown", "text/x-markdown":
		return "markdown"
	case "text/plain", "":
		switch strings.ToLower(path.Ext(urlPath)) {
		case ".md", ".markdown":
			return "markdown"
		}
		if mediaType == "" {
			return ""
		}
		return "text"
	}
	return ""
}
