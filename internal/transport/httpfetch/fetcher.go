package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/metrics"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultMaxBodyBytes    = 64 << 20
	DefaultUserAgent       = "corpusdash/1.0"
	DefaultFallbackCharset = "gb18030"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Config holds the fetcher settings.
type Config struct {
	// Kind labels metrics and logs, e.g. "corpus" or "json".
	Kind            string
	Timeout         time.Duration
	MaxBodyBytes    int64
	UserAgent       string
	FallbackCharset string
	// Client overrides the default HTTP client; Timeout still applies per request.
	Client *http.Client
	Logger *zap.Logger
}

// Fetcher retrieves remote documents over HTTP and decodes them to UTF-8.
type Fetcher struct {
	client          *http.Client
	kind            string
	timeout         time.Duration
	maxBodyBytes    int64
	userAgent       string
	fallbackCharset string
	logger          *zap.Logger
	now             func() time.Time
}

// Compile-time check: Fetcher implements domain.Fetcher.
var _ domain.Fetcher = (*Fetcher)(nil)

// New creates a fetcher with defaults for zero fields.
func New(cfg *Config) *Fetcher {
	f := &Fetcher{
		client:          cfg.Client,
		kind:            cfg.Kind,
		timeout:         cfg.Timeout,
		maxBodyBytes:    cfg.MaxBodyBytes,
		userAgent:       cfg.UserAgent,
		fallbackCharset: cfg.FallbackCharset,
		logger:          cfg.Logger,
		now:             time.Now,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.kind == "" {
		f.kind = "corpus"
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.maxBodyBytes <= 0 {
		f.maxBodyBytes = DefaultMaxBodyBytes
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.fallbackCharset == "" {
		f.fallbackCharset = DefaultFallbackCharset
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// Fetch implements domain.Fetcher. Any status other than 200 is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	doc, result, err := f.do(req)
	duration := time.Since(start)

	metrics.FetchRequestsTotal.WithLabelValues(f.kind, result).Inc()
	metrics.FetchDuration.WithLabelValues(f.kind).Observe(duration.Seconds())

	if err != nil {
		f.logger.Warn("Fetch failed",
			zap.String("kind", f.kind),
			zap.String("url", url),
			zap.String("result", result),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Document{}, err
	}

	metrics.FetchBytesTotal.WithLabelValues(f.kind).Add(float64(len(doc.Body)))
	f.logger.Debug("Fetched document",
		zap.String("kind", f.kind),
		zap.String("url", url),
		zap.String("charset", doc.Charset),
		zap.Int("bytes", len(doc.Body)),
		zap.Duration("duration", duration),
	)
	return doc, nil
}

func (f *Fetcher) do(req *http.Request) (domain.Document, string, error) {
	url := req.URL.String()

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Document{}, "transport_error", fmt.Errorf("%w: %s: %w", domain.ErrFetchFailed, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return domain.Document{}, "status_error", domain.NewFetchError(url, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBodyBytes {
		return domain.Document{}, "too_large", f.tooLarge(url)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return domain.Document{}, "transport_error", fmt.Errorf("%w: %s: read body: %w", domain.ErrFetchFailed, url, err)
	}
	if int64(len(raw)) > f.maxBodyBytes {
		return domain.Document{}, "too_large", f.tooLarge(url)
	}

	contentType := resp.Header.Get("Content-Type")
	body, name, err := f.decode(raw, contentType)
	if err != nil {
		return domain.Document{}, "transport_error", fmt.Errorf("%w: %s: decode %s: %w", domain.ErrFetchFailed, url, name, err)
	}

	return domain.Document{
		URL:         url,
		Body:        body,
		ContentType: contentType,
		Charset:     name,
		FetchedAt:   f.now().UTC(),
	}, "success", nil
}

func (f *Fetcher) tooLarge(url string) error {
	return fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrDocumentTooLarge, url, f.maxBodyBytes)
}

// decode converts raw to UTF-8. A declared charset wins; otherwise valid
// UTF-8 passes through and anything else is read as the fallback charset.
func (f *Fetcher) decode(raw []byte, contentType string) ([]byte, string, error) {
	label := declaredCharset(contentType)
	if label == "" {
		if utf8.Valid(raw) {
			return bytes.TrimPrefix(raw, utf8BOM), "utf-8", nil
		}
		label = f.fallbackCharset
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		if utf8.Valid(raw) {
			return bytes.TrimPrefix(raw, utf8BOM), "utf-8", nil
		}
		enc, name = charset.Lookup(f.fallbackCharset)
		if enc == nil {
			return nil, label, errors.New("unknown charset")
		}
	}
	if name == "utf-8" {
		return bytes.TrimPrefix(raw, utf8BOM), name, nil
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, name, err //nolint:wrapcheck // wrapped by caller
	}
	return out, name, nil
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}
