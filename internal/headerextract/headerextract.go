// Package headerextract implements the header-element strategy chain
// (spec.md §4.6): given an article URL, produce a single HTML fragment
// (an iframe or an <img>) representative of the article, trying each
// strategy in order and falling through to the next on any non-skip
// error. It is built on top of internal/htmlutil (C2) for DOM work and
// internal/imageservice (C3) for image re-encoding, following the
// URL-form enumeration pattern other feed adapters in the pack use for
// provider-specific detection.
package headerextract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"feedreader/internal/domain/entity"
)

// ContentFetcher is the subset of internal/infra/fetcher.Fetcher the
// extractor needs: raw bytes+content-type, and a parsed HTML document.
type ContentFetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
	GetHTML(ctx context.Context, url string) (*goquery.Document, error)
}

// RedditIconLookup resolves a subreddit's icon URL via the Reddit API.
// Implemented by the Reddit aggregator adapter, injected here so the
// extractor never depends on Reddit OAuth plumbing directly.
type RedditIconLookup interface {
	SubredditIconURL(ctx context.Context, subreddit string) (string, error)
}

// Strategy is one link in the header-extraction chain. Ordering matters:
// the Reddit-embed strategy must be tried before the Reddit-post strategy,
// since a vxreddit.com/reddit.com/embed URL would otherwise also match the
// post-URL pattern.
type Strategy interface {
	CanHandle(url string) bool
	Create(ctx context.Context, url string, forHeader bool) (string, error)
}

// Extractor runs the ordered strategy chain over an article URL.
type Extractor struct {
	strategies []Strategy
}

// Config controls the proxy path the YouTube strategy points at and the
// image-service thresholds the generic-image strategy applies.
type Config struct {
	// YouTubeProxyPath is the local endpoint YouTube iframes are rewritten
	// to point at instead of youtube.com directly (spec.md §4.6 step 3).
	YouTubeProxyPath string
}

// DefaultConfig returns the production proxy path.
func DefaultConfig() Config {
	return Config{YouTubeProxyPath: "/api/youtube-proxy"}
}

// New builds an Extractor with the full strategy chain: Reddit embed,
// Reddit post, YouTube, generic image — in that order.
func New(cfg Config, fetcher ContentFetcher, reddit RedditIconLookup) *Extractor {
	return &Extractor{
		strategies: []Strategy{
			&redditEmbedStrategy{},
			&redditPostStrategy{reddit: reddit, fetcher: fetcher},
			&youTubeStrategy{proxyPath: cfg.YouTubeProxyPath},
			&genericImageStrategy{fetcher: fetcher},
		},
	}
}

// Extract returns the header HTML fragment for url, or ("", nil) if no
// strategy matched. A 4xx anywhere in the chain is surfaced immediately as
// *entity.ArticleSkipError per spec.md §4.6 note 1 (the pipeline drops the
// whole article rather than falling through); any other strategy error is
// logged and the chain continues to the next candidate.
func (e *Extractor) Extract(ctx context.Context, url string, forHeader bool) (string, error) {
	for _, strategy := range e.strategies {
		if !strategy.CanHandle(url) {
			continue
		}
		html, err := strategy.Create(ctx, url, forHeader)
		if err == nil {
			return html, nil
		}
		if entity.IsArticleSkip(err) {
			return "", err
		}
		slog.Warn("header extraction strategy failed, trying next",
			slog.String("url", url), slog.Any("error", err))
	}
	return "", nil
}

func wrapStrategyErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if entity.IsArticleSkip(err) {
		return err
	}
	return fmt.Errorf("headerextract: %s: %w", name, err)
}
