// Package fullwebsite implements the full-website Aggregator shape
// (spec.md §4.3 "Full-website adapter"): an RSS feed supplies the entry
// list, then each entry's article page is fetched, its header element
// extracted, its body content selected/pruned/sanitized, and embeds
// proxied, before being wrapped in the standard formatter. Per-site
// adapters (internal/aggregator/sites) configure this with a content
// selector, removal list, blocklists, and optional hooks rather than
// subclassing a base aggregator, per spec.md §9's composition guidance.
package fullwebsite

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"feedreader/internal/aggregator"
	"feedreader/internal/aggregator/rss"
	"feedreader/internal/domain/entity"
	"feedreader/internal/headerextract"
	"feedreader/internal/htmlutil"
	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"
)

// PageFetcher is the subset of internal/infra/fetcher.Fetcher a site adapter
// needs to enrich an article: a parsed-HTML GET.
type PageFetcher interface {
	GetHTML(ctx context.Context, url string) (*goquery.Document, error)
}

// Config configures one site's extraction rules. ContentSelector and
// SelectorsToRemove are required; every other field is an optional
// per-site override (spec.md §4.3 "Per-site adapters set content_selector
// and selectors_to_remove, may override extract_content/process_content,
// and may override filter_articles with title/url blocklists").
type Config struct {
	ContentSelector   string
	SelectorsToRemove []string
	TitleBlocklist    []string
	URLBlocklist      []string

	// RewriteURL transforms the entry URL before fetching the article page
	// (e.g. Heise's "...?seite=all" to load a single-page view).
	RewriteURL func(url string) string

	// ExtractContent overrides the default doc.Find(ContentSelector)
	// selection, e.g. Mein-MMO's multi-page concatenation.
	ExtractContent func(ctx context.Context, fetcher PageFetcher, doc *goquery.Document, pageURL string) (*goquery.Selection, error)

	// ProcessContent runs after selectors-to-remove/sanitization, operating
	// directly on the selected content node (e.g. Tagesschau's data-v
	// player-metadata extraction, Merkur's second sanitize pass).
	ProcessContent func(doc *goquery.Document, content *goquery.Selection)

	// ComposeExtra builds an additional HTML section inserted between body
	// and footer (e.g. Heise's JSON-LD discussionUrl comments block).
	ComposeExtra func(ctx context.Context, doc *goquery.Document, pageURL string) (string, error)

	// Summarizer optionally rewrites each article's body through the
	// external AI rewrite path (spec.md §4.2 step 6); nil skips the step
	// entirely. A rewrite failure keeps the article's un-rewritten body
	// rather than dropping the article.
	Summarizer aggregator.Summarizer
}

var srcAttrPattern = regexp.MustCompile(`src="([^"]+)"`)

// Adapter is the generic full-website Aggregator: RSS entry list plus
// per-item page enrichment driven by Config.
type Adapter struct {
	rssClient      *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	fetcher        PageFetcher
	headerExtract  *headerextract.Extractor
	filter         aggregator.DefaultFilter
	cfg            Config
}

// New builds a full-website adapter. rssClient fetches the feed XML listing
// entries; fetcher and headerExtract perform the per-item page enrichment.
// A nil headerExtract disables header-element extraction entirely (spec.md
// §4.3: Dark Legacy, Explosm and Oglaf have no separate header — the comic
// image IS the article content).
func New(rssClient *http.Client, fetcher PageFetcher, headerExtract *headerextract.Extractor, cfg Config) *Adapter {
	return &Adapter{
		rssClient:      rssClient,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		fetcher:        fetcher,
		headerExtract:  headerExtract,
		filter:         aggregator.NewDefaultFilter(),
		cfg:            cfg,
	}
}

// SetSummarizer wires the external AI rewrite collaborator in after
// construction, so a single process-wide Summarizer can be shared across
// every per-site adapter without threading it through each sites.NewX call.
func (a *Adapter) SetSummarizer(s aggregator.Summarizer) {
	a.cfg.Summarizer = s
}

func (a *Adapter) Validate(_ context.Context, feed *entity.Feed, _ *entity.UserSettings) error {
	if feed.Identifier == "" {
		return &entity.ValidationError{Field: "identifier", Message: "feed URL is required"}
	}
	return entity.ValidateURL(feed.Identifier)
}

func (a *Adapter) FetchSourceData(ctx context.Context, feed *entity.Feed, _ *entity.UserSettings, _ int) (any, error) {
	return rss.FetchFeed(ctx, a.rssClient, a.circuitBreaker, a.retryConfig, feed.Identifier)
}

func (a *Adapter) ParseToRawArticles(_ context.Context, _ *entity.Feed, source any) ([]aggregator.RawArticle, error) {
	feed, ok := source.(*gofeed.Feed)
	if !ok || feed == nil {
		return nil, fmt.Errorf("fullwebsite: unexpected source type %T", source)
	}
	return rss.ItemsToRawArticles(feed.Items), nil
}

func (a *Adapter) FilterArticles(_ context.Context, _ *entity.Feed, articles []aggregator.RawArticle) []aggregator.RawArticle {
	filtered := a.filter.Apply(articles)
	if len(a.cfg.TitleBlocklist) == 0 && len(a.cfg.URLBlocklist) == 0 {
		return filtered
	}

	out := make([]aggregator.RawArticle, 0, len(filtered))
	for _, item := range filtered {
		if matchesBlocklist(item.Title, a.cfg.TitleBlocklist) || matchesBlocklist(item.URL, a.cfg.URLBlocklist) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesBlocklist(value string, blocklist []string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	for _, term := range blocklist {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func (a *Adapter) EnrichArticles(ctx context.Context, _ *entity.Feed, _ *entity.UserSettings, articles []aggregator.RawArticle) []aggregator.FinalArticle {
	out := make([]aggregator.FinalArticle, 0, len(articles))
	for _, item := range articles {
		final, ok := a.enrichOne(ctx, item)
		if !ok {
			continue
		}
		out = append(out, final)
	}
	return out
}

func (a *Adapter) enrichOne(ctx context.Context, item aggregator.RawArticle) (aggregator.FinalArticle, bool) {
	pageURL := item.URL
	if a.cfg.RewriteURL != nil {
		pageURL = a.cfg.RewriteURL(pageURL)
	}

	var headerHTML string
	if a.headerExtract != nil {
		var err error
		headerHTML, err = a.headerExtract.Extract(ctx, pageURL, true)
		if entity.IsArticleSkip(err) {
			slog.Warn("full-website: header extraction skipped article", slog.String("url", pageURL), slog.Any("error", err))
			return aggregator.FinalArticle{}, false
		}
		if err != nil {
			slog.Warn("full-website: header extraction failed, continuing without header", slog.String("url", pageURL), slog.Any("error", err))
			headerHTML = ""
		}
	}

	doc, err := a.fetcher.GetHTML(ctx, pageURL)
	if entity.IsArticleSkip(err) {
		slog.Warn("full-website: page fetch skipped article", slog.String("url", pageURL), slog.Any("error", err))
		return aggregator.FinalArticle{}, false
	}
	if err != nil {
		slog.Warn("full-website: page fetch failed, dropping article", slog.String("url", pageURL), slog.Any("error", err))
		return aggregator.FinalArticle{}, false
	}

	htmlutil.RemoveSelectors(doc, a.cfg.SelectorsToRemove)

	var content *goquery.Selection
	if a.cfg.ExtractContent != nil {
		content, err = a.cfg.ExtractContent(ctx, a.fetcher, doc, pageURL)
		if err != nil {
			slog.Warn("full-website: custom content extraction failed, dropping article", slog.String("url", pageURL), slog.Any("error", err))
			return aggregator.FinalArticle{}, false
		}
	} else {
		content = doc.Find(a.cfg.ContentSelector).First()
	}
	if content == nil || content.Length() == 0 {
		slog.Warn("full-website: content selector matched nothing", slog.String("url", pageURL), slog.String("selector", a.cfg.ContentSelector))
		return aggregator.FinalArticle{}, false
	}

	headerextract.RewriteYouTubeIframes(doc, headerextract.DefaultConfig().YouTubeProxyPath)

	if headerImageURL := extractSrc(headerHTML); headerImageURL != "" {
		htmlutil.RemoveImageByURL(doc, headerImageURL)
	}

	htmlutil.SanitizeClassNames(doc)

	if a.cfg.ProcessContent != nil {
		a.cfg.ProcessContent(doc, content)
	}

	bodyHTML, err := content.Html()
	if err != nil {
		slog.Warn("full-website: serializing content failed, dropping article", slog.String("url", pageURL), slog.Any("error", err))
		return aggregator.FinalArticle{}, false
	}

	extra := ""
	if a.cfg.ComposeExtra != nil {
		extra, err = a.cfg.ComposeExtra(ctx, doc, pageURL)
		if err != nil {
			slog.Warn("full-website: composing extra section failed", slog.String("url", pageURL), slog.Any("error", err))
			extra = ""
		}
	}

	return aggregator.FinalArticle{
		Identifier:          item.Identifier,
		Name:                item.Title,
		RawContent:          item.Content,
		Content:             aggregator.FormatWithExtra(item.Title, item.URL, item.Author, item.Date, headerHTML, bodyHTML, extra),
		Date:                item.Date,
		OriginalPublishedAt: item.OriginalPublishedAt(),
		Author:              item.Author,
		Icon:                headerHTML,
	}, true
}

func extractSrc(fragment string) string {
	m := srcAttrPattern.FindStringSubmatch(fragment)
	if m == nil {
		return ""
	}
	return m[1]
}

func (a *Adapter) FinalizeArticles(ctx context.Context, _ *entity.Feed, articles []aggregator.FinalArticle) []aggregator.FinalArticle {
	if a.cfg.Summarizer == nil {
		return articles
	}
	for i, article := range articles {
		rewritten, err := a.cfg.Summarizer.Summarize(ctx, article.Content)
		if err != nil {
			slog.Warn("full-website: AI rewrite failed, keeping original body", slog.String("identifier", article.Identifier), slog.Any("error", err))
			continue
		}
		articles[i].Content = rewritten
	}
	return articles
}

func (a *Adapter) GetSourceURL(feed *entity.Feed) string {
	return feed.Identifier
}

func (a *Adapter) NormalizeIdentifier(raw string) (string, error) {
	if err := entity.ValidateURL(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (a *Adapter) GetIdentifierChoices(_ context.Context, partial string) ([]aggregator.IdentifierChoice, error) {
	return []aggregator.IdentifierChoice{{Value: partial, Label: partial}}, nil
}

func (a *Adapter) GetDefaultIdentifier() string {
	return ""
}

func (a *Adapter) GetConfigurationFields() []aggregator.ConfigurationField {
	return nil
}
