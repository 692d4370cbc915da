// Package web loads news articles and other public pages over HTTP.
//
// HTML pages are reduced to their readable text with goquery: page chrome
// (navigation, headers, footers, scripts) is dropped and each block element
// becomes one paragraph, so the chunker's paragraph separator lines up with
// the article's own structure. Plain text is kept verbatim.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Defaults applied when Config fields are zero.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 5 << 20
	DefaultUserAgent = "rockybot/1.0"
)

const (
	chromeSelector = "script, style, nav, footer, aside, noscript, header"
	blockSelector  = "p, h1, h2, h3, h4, h5, h6, li, pre, blockquote"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Config configures a Loader.
type Config struct {
	// Timeout bounds each request.
	Timeout time.Duration

	// RatePerSecond paces requests. Zero or less disables pacing.
	RatePerSecond float64

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBytes bounds the response body.
	MaxBytes int64
}

// ConfigFromSettings converts loader settings.
func ConfigFromSettings(s domain.LoaderSettings) Config {
	return Config{
		Timeout:       time.Duration(s.TimeoutSeconds) * time.Second,
		RatePerSecond: s.RatePerSecond,
		UserAgent:     s.UserAgent,
		MaxBytes:      s.MaxBytes,
	}
}

// Loader fetches URLs one at a time.
type Loader struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBytes  int64
	now       func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithClock replaces the clock used for Document.FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New creates a loader.
func New(cfg Config, opts ...Option) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	l := &Loader{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every URL in order. Duplicate URLs are fetched once.
func (l *Loader) Load(ctx context.Context, urls []string) (driven.LoadResult, error) {
	var result driven.LoadResult
	seen := make(map[string]bool, len(urls))

	for _, raw := range urls {
		u := strings.TrimSpace(raw)
		if seen[u] {
			continue
		}
		seen[u] = true

		if err := l.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("waiting to fetch %s: %w", u, err)
		}

		doc, err := l.fetch(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Debug("loader: skipping %s: %v", u, err)
			result.Failures = append(result.Failures, domain.FetchError{URL: u, Err: err})
			continue
		}

		logger.Debug("loader: %s -> %d characters", u, doc.Len())
		result.Documents = append(result.Documents, *doc)
	}
	return result, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("missing host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.1")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", l.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content type %q", contentType)
	}

	doc := &domain.Document{
		Source:      rawURL,
		ContentType: mediaType,
		FetchedAt:   l.now(),
	}
	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		doc.Title, doc.Content, err = ExtractHTML(body)
		if err != nil {
			return nil, err
		}
	case strings.HasPrefix(mediaType, "text/"):
		doc.Content = string(body)
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}

	if strings.TrimSpace(doc.Content) == "" {
		return nil, errors.New("no text content")
	}
	return doc, nil
}

// ExtractHTML returns the page title and readable text of an HTML page.
func ExtractHTML(body []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("parsing html: %w", err)
	}

	title = collapse(doc.Find("title").First().Text())
	doc.Find(chromeSelector).Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var blocks []string
	root.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (a <p> inside an <li>) are covered by their ancestor.
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if t := collapse(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		if t := collapse(root.Text()); t != "" {
			blocks = append(blocks, t)
		}
	}
	return title, strings.Join(blocks, "\n\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
