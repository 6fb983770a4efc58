package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"feedreader/internal/domain/entity"
	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"
)

// DefaultUserAgent is sent on every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (compatible; FeedReaderBot/1.0; +https://example.invalid/bot)"

// Fetcher performs outbound HTTP fetches on behalf of aggregators and the
// header extractor, wrapping net/http.Client with retry and circuit-breaker
// protection the way internal/infra/scraper/rss.go wraps gofeed's transport.
type Fetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	userAgent      string
	config         ContentFetchConfig
}

// New builds a Fetcher from cfg. denyPrivateIPs SSRF checks are always
// applied before any request regardless of cfg.DenyPrivateIPs being left at
// its zero value, since cfg should come from DefaultConfig or LoadConfigFromEnv.
func New(cfg ContentFetchConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.WebScraperConfig()),
		retryConfig:    retry.WebScraperConfig(),
		userAgent:      DefaultUserAgent,
		config:         cfg,
	}
}

// WithUserAgent returns a shallow copy of f using the given User-Agent.
func (f *Fetcher) WithUserAgent(ua string) *Fetcher {
	clone := *f
	clone.userAgent = ua
	return &clone
}

// Get fetches rawURL and returns the response body plus declared
// Content-Type. A 4xx response is converted to *entity.ArticleSkipError so
// callers can drop the item silently (spec.md §4.1); 5xx and transport
// errors are retried with exponential backoff and propagate once retries
// are exhausted.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := validateURL(rawURL, f.config.DenyPrivateIPs); err != nil {
		return nil, "", err
	}

	var body []byte
	var contentType string

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doGet(ctx, rawURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("fetcher circuit breaker open, request rejected",
					slog.String("url", rawURL))
			}
			return err
		}
		fetched := result.(fetchResult)
		body = fetched.body
		contentType = fetched.contentType
		return nil
	})
	if retryErr != nil {
		var skip *entity.ArticleSkipError
		if errors.As(retryErr, &skip) {
			return nil, "", retryErr
		}
		return nil, "", fmt.Errorf("fetcher: get %s: %w", rawURL, retryErr)
	}

	return body, contentType, nil
}

// GetHTML fetches rawURL and parses the body as an HTML document.
func (f *Fetcher) GetHTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, _, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetcher: parse html from %s: %w", rawURL, err)
	}
	doc.Url, _ = url.Parse(rawURL)
	return doc, nil
}

type fetchResult struct {
	body        []byte
	contentType string
}

// doGet performs a single unretried HTTP GET. A 4xx status returns a
// non-retryable *entity.ArticleSkipError; retry.IsRetryable does not
// special-case that type and would otherwise treat it as non-retryable by
// falling through its default branch, which is the behavior we want here.
func (f *Fetcher) doGet(ctx context.Context, rawURL string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if origin := referrerOrigin(rawURL); origin != "" {
		req.Header.Set("Referer", origin)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: transport error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, entity.NewArticleSkipError(rawURL, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("upstream status for %s", rawURL)}
	}

	maxBody := f.config.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultConfig().MaxBodySize
	}
	limited := io.LimitReader(resp.Body, maxBody+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body: %w", err)
	}
	if int64(len(body)) > maxBody {
		return nil, fmt.Errorf("fetcher: response from %s exceeds max body size %d", rawURL, maxBody)
	}

	return fetchResult{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

func referrerOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
