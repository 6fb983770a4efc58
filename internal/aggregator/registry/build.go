package registry

import (
	"net/http"

	"feedreader/internal/aggregator"
	"feedreader/internal/aggregator/fullwebsite"
	"feedreader/internal/aggregator/podcast"
	"feedreader/internal/aggregator/reddit"
	"feedreader/internal/aggregator/rss"
	"feedreader/internal/aggregator/sites"
	"feedreader/internal/aggregator/youtube"
	"feedreader/internal/headerextract"
)

// BuildConfig carries the shared, process-wide dependencies every
// Aggregator needs at construction time: one outbound HTTP client per
// transport concern, the page fetcher backing per-site full-article
// extraction, and the header-extract chain each site adapter's
// FinalizeArticles step threads through.
type BuildConfig struct {
	// HTTPClient is used by adapters that issue their own API calls
	// (YouTube, podcast, plain RSS) rather than going through PageFetcher.
	HTTPClient *http.Client
	// Reddit is constructed and wired by the caller (so
	// SetIconLookupSettings can be called first, e.g. with an account's
	// saved Reddit credentials) and handed in ready to use.
	Reddit *reddit.Adapter
	// PageFetcher backs every fullwebsite-based per-site adapter's
	// single-page GET, and is reused as Heise's separate forum-comments
	// page fetch (sites.CommentFetcher is an alias of this interface).
	PageFetcher fullwebsite.PageFetcher
	// HeaderExtract builds each site's representative header element
	// (image or iframe) for FinalizeArticles.
	HeaderExtract *headerextract.Extractor
	// YouTubeProxyPath is forwarded to the YouTube adapter so embedded
	// iframes route through the local proxy instead of youtube.com
	// directly (spec.md §4.6 step 3); "" selects the default.
	YouTubeProxyPath string
	// Summarizer optionally wires the external AI rewrite pass (spec.md
	// §4.2 step 6) into every per-site adapter's FinalizeArticles; nil
	// leaves the step a no-op.
	Summarizer aggregator.Summarizer
}

// Build constructs every Aggregator spec.md §4.3 names - the four generic
// source kinds plus one adapter per supported publication - and returns
// the resulting Registry. Each site gets its own registry tag, distinct
// from the generic "rss"/"reddit"/"youtube"/"podcast" tags (spec.md §4.3
// "per-site adapters").
func Build(cfg BuildConfig) *Registry {
	client := cfg.HTTPClient
	pf := cfg.PageFetcher
	extractor := cfg.HeaderExtract

	siteAdapters := map[string]*fullwebsite.Adapter{
		"caschys_blog": sites.NewCaschysBlog(client, pf, extractor),
		"dark_legacy":  sites.NewDarkLegacy(client, pf),
		"explosm":      sites.NewExplosm(client, pf),
		"oglaf":        sites.NewOglaf(client, pf),
		"mactechnews":  sites.NewMacTechNews(client, pf, extractor),
		"heise":        sites.NewHeise(client, pf, extractor, pf),
		"merkur":       sites.NewMerkur(client, pf, extractor),
		"tagesschau":   sites.NewTagesschau(client, pf, extractor),
		"mein_mmo":     sites.NewMeinMMO(client, pf, extractor),
	}

	entries := map[string]aggregator.Aggregator{
		"rss":     rss.New(client),
		"reddit":  cfg.Reddit,
		"youtube": youtube.New(client, cfg.YouTubeProxyPath),
		"podcast": podcast.New(client),
	}
	for tag, adapter := range siteAdapters {
		if cfg.Summarizer != nil {
			adapter.SetSummarizer(cfg.Summarizer)
		}
		entries[tag] = adapter
	}
	return New(entries)
}
