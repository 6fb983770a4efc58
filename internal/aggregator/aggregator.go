// Package aggregator defines the capability contract every source-type
// adapter (RSS, full-website, Reddit, YouTube, podcast) implements, and the
// template-method Run that drives one feed through it (spec.md §4.2, §9).
//
// The source material's deep class hierarchy (BaseAggregator ->
// RssAggregator -> FullWebsiteAggregator -> per-site) is modeled here as a
// capability interface plus embeddable default implementations, not as a
// chain of base structs — adapters compose DefaultFilter and friends the way
// the teacher composes small interfaces (ScraperFactory's FeedFetcher) rather
// than inheriting behavior.
package aggregator

import (
	"context"
	"time"

	"feedreader/internal/domain/entity"
)

// RawArticle is a partial article record produced by ParseToRawArticles,
// before filtering, enrichment, or finalization. Hints carries per-adapter
// private data (media URL, gallery data, subreddit name, comment list) that
// later pipeline steps for that same adapter need but other adapters don't.
type RawArticle struct {
	Identifier string
	Title      string
	URL        string
	Author     string
	Content    string
	Date       time.Time
	Hints      map[string]string
}

// Hint returns a per-adapter hint value, or the empty string if unset.
func (a *RawArticle) Hint(key string) string {
	if a.Hints == nil {
		return ""
	}
	return a.Hints[key]
}

// hintOriginalPublishedAt is the Hints key DefaultFilter.Apply uses to stash
// an article's true publish date before jittering Date, so EnrichArticles
// can still recover it for FinalArticle.OriginalPublishedAt (spec.md §3).
const hintOriginalPublishedAt = "original_published_at"

// OriginalPublishedAt returns the date DefaultFilter.Apply recorded before
// jittering Date, or Date itself if no filter ran (or the adapter sources
// OriginalPublishedAt independently, e.g. reddit from post.CreatedUTC).
func (a *RawArticle) OriginalPublishedAt() time.Time {
	if v := a.Hint(hintOriginalPublishedAt); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return a.Date
}

// FinalArticle is the result of EnrichArticles/FinalizeArticles, ready to
// persist as an entity.Article.
type FinalArticle struct {
	Identifier          string
	Name                string
	RawContent          string
	Content              string
	Date                time.Time
	OriginalPublishedAt time.Time
	Author              string
	Icon                string
}

// ToEntity builds the persistence-layer Article for feedID.
func (a *FinalArticle) ToEntity(feedID int64) *entity.Article {
	return &entity.Article{
		FeedID:              feedID,
		Identifier:          a.Identifier,
		Name:                a.Name,
		RawContent:          a.RawContent,
		Content:             a.Content,
		Date:                a.Date,
		OriginalPublishedAt: a.OriginalPublishedAt,
		Author:              a.Author,
		Icon:                a.Icon,
	}
}

// ConfigurationField describes one per-adapter option surfaced to whatever
// admin UI edits Feed.Options (spec.md §9 get_configuration_fields).
type ConfigurationField struct {
	Key     string
	Label   string
	Type    string // "string", "bool", "int"
	Default string
}

// IdentifierChoice is one candidate returned by GetIdentifierChoices when an
// adapter can resolve a partial/ambiguous identifier (e.g. YouTube channel
// search) to several concrete options.
type IdentifierChoice struct {
	Value string
	Label string
}

// Aggregator is the capability set every source-type adapter implements
// (spec.md §9): validate, fetch_source_data, parse_to_raw_articles,
// filter_articles, enrich_articles, finalize_articles, plus the identifier
// and configuration metadata operations the registry/UI layer needs.
type Aggregator interface {
	// Validate raises a domain error describing misconfiguration: missing
	// identifier, disabled API integration, invalid subreddit name, etc.
	Validate(ctx context.Context, feed *entity.Feed, settings *entity.UserSettings) error

	// FetchSourceData pulls raw upstream data (feed XML, Reddit listing,
	// YouTube playlist page, podcast feed) sized to overfetch limit items.
	FetchSourceData(ctx context.Context, feed *entity.Feed, settings *entity.UserSettings, limit int) (any, error)

	// ParseToRawArticles yields partial article records from source.
	ParseToRawArticles(ctx context.Context, feed *entity.Feed, source any) ([]RawArticle, error)

	// FilterArticles drops stale/noisy items and rewrites timestamps for
	// sort-order diversity (spec.md §4.2 step 4).
	FilterArticles(ctx context.Context, feed *entity.Feed, articles []RawArticle) []RawArticle

	// EnrichArticles fetches full content, extracts the header element, and
	// builds the final HTML body. A single item's failure must not abort
	// the run; such items are dropped (or kept pre-enrich, adapter's
	// choice) rather than propagated.
	EnrichArticles(ctx context.Context, feed *entity.Feed, settings *entity.UserSettings, articles []RawArticle) []FinalArticle

	// FinalizeArticles runs the optional external AI rewrite pass and
	// returns the articles ready to persist.
	FinalizeArticles(ctx context.Context, feed *entity.Feed, articles []FinalArticle) []FinalArticle

	// GetSourceURL returns the human-facing site URL for feed (GReader
	// subscription/list htmlUrl).
	GetSourceURL(feed *entity.Feed) string

	// NormalizeIdentifier canonicalizes a raw user-entered identifier
	// before persisting it on a Feed (spec.md §3 Feed lifecycle).
	NormalizeIdentifier(raw string) (string, error)

	// GetIdentifierChoices resolves an ambiguous/partial identifier to
	// concrete candidates, or returns a single choice when unambiguous.
	GetIdentifierChoices(ctx context.Context, partial string) ([]IdentifierChoice, error)

	// GetDefaultIdentifier returns a placeholder/example identifier for
	// configuration forms; empty if none applies.
	GetDefaultIdentifier() string

	// GetConfigurationFields lists the per-adapter Feed.Options knobs.
	GetConfigurationFields() []ConfigurationField
}

// Clock abstracts time.Now so Run and the run limiter are testable with a
// frozen clock (spec.md §9 "Run limiter").
type Clock func() time.Time

// Run drives feed through the full template method: validate, fetch, parse,
// filter, enrich, finalize. Overfetch multiplies limit by factor (spec.md
// §4.2: "fetch up to 2-3x limit items upstream"). Per-item and per-step
// errors that the adapter itself already handles (ArticleSkipError, etc.)
// never reach here; only a Validate or FetchSourceData/ParseToRawArticles
// failure aborts the whole run, matching the "parse error aborts this
// feed's run" policy in spec.md §7.
func Run(ctx context.Context, agg Aggregator, feed *entity.Feed, settings *entity.UserSettings, limit int, overfetchFactor float64) ([]FinalArticle, error) {
	if err := agg.Validate(ctx, feed, settings); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	overfetch := int(float64(limit) * overfetchFactor)
	if overfetch < limit {
		overfetch = limit
	}

	source, err := agg.FetchSourceData(ctx, feed, settings, overfetch)
	if err != nil {
		return nil, err
	}

	raw, err := agg.ParseToRawArticles(ctx, feed, source)
	if err != nil {
		return nil, err
	}

	filtered := agg.FilterArticles(ctx, feed, raw)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	enriched := agg.EnrichArticles(ctx, feed, settings, filtered)
	return agg.FinalizeArticles(ctx, feed, enriched), nil
}

// Summarizer is the external AI rewrite collaborator spec.md §4.2 step 6
// names ("optionally send each article through the AI rewrite path") and
// §1 places out of scope as a full feature, specified only by this
// interface. internal/infra/summarizer.Claude/OpenAI/NoOp already satisfy
// it; an adapter's FinalizeArticles wires one in through its own Config
// rather than this package depending on any concrete summarizer.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
