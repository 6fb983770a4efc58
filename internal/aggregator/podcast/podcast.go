// Package podcast implements the podcast-feed Aggregator (spec.md §4.3
// "Podcast"): episodes come from the same RSS/Atom parsing
// internal/aggregator/rss uses, but only items carrying an audio
// enclosure survive, and the body gets an embedded HTML5 player plus
// episode metadata instead of the feed's raw summary, grounded on
// original_source/core/aggregators/podcast/aggregator.py.
package podcast

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"feedreader/internal/aggregator"
	"feedreader/internal/aggregator/rss"
	"feedreader/internal/domain/entity"
	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"
)

const defaultArtworkSize = 300

var audioExtensions = []string{".mp3", ".m4a", ".ogg", ".opus", ".wav"}

// Adapter is the podcast Aggregator.
type Adapter struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	filter         aggregator.DefaultFilter
}

// New builds a podcast adapter using client for outbound feed fetches.
func New(client *http.Client) *Adapter {
	return &Adapter{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		filter:         aggregator.NewDefaultFilter(),
	}
}

func (a *Adapter) Validate(_ context.Context, feed *entity.Feed, _ *entity.UserSettings) error {
	if feed.Identifier == "" {
		return &entity.ValidationError{Field: "identifier", Message: "feed URL is required"}
	}
	return entity.ValidateURL(feed.Identifier)
}

func (a *Adapter) FetchSourceData(ctx context.Context, feed *entity.Feed, _ *entity.UserSettings, _ int) (any, error) {
	return rss.FetchFeed(ctx, a.client, a.circuitBreaker, a.retryConfig, feed.Identifier)
}

// ParseToRawArticles keeps only entries carrying an audio enclosure,
// grounded on aggregator.py parse_to_raw_articles.
func (a *Adapter) ParseToRawArticles(_ context.Context, feed *entity.Feed, source any) ([]aggregator.RawArticle, error) {
	gfeed, ok := source.(*gofeed.Feed)
	if !ok || gfeed == nil {
		return nil, fmt.Errorf("podcast: unexpected source type %T", source)
	}

	items := gfeed.Items
	if feed.DailyLimit > 0 && len(items) > feed.DailyLimit {
		items = items[:feed.DailyLimit]
	}

	out := make([]aggregator.RawArticle, 0, len(items))
	for _, item := range items {
		mediaURL, mediaType, ok := episodeAudio(item)
		if !ok {
			continue
		}

		identifier := item.Link
		if identifier == "" {
			identifier = item.GUID
		}
		if identifier == "" {
			continue
		}

		date := time.Now()
		if item.PublishedParsed != nil {
			date = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			date = *item.UpdatedParsed
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		} else if len(item.Authors) > 0 {
			author = item.Authors[0].Name
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		duration := episodeDuration(item)
		imageURL := episodeImage(item)

		out = append(out, aggregator.RawArticle{
			Identifier: identifier,
			Title:      item.Title,
			URL:        item.Link,
			Author:     author,
			Content:    content,
			Date:       date,
			Hints: map[string]string{
				"media_url":  mediaURL,
				"media_type": mediaType,
				"duration":   strconv.Itoa(duration),
				"image_url":  imageURL,
			},
		})
	}
	return out, nil
}

// episodeAudio returns the first audio enclosure on item, preferring an
// audio/* MIME type and falling back to a recognized file extension.
func episodeAudio(item *gofeed.Item) (mediaURL, mediaType string, ok bool) {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		mtype := enc.Type
		lower := strings.ToLower(enc.URL)
		if strings.HasPrefix(mtype, "audio/") || hasAnySuffix(lower, audioExtensions) {
			if mtype == "" {
				mtype = "audio/mpeg"
			}
			return enc.URL, mtype, true
		}
	}
	return "", "", false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func episodeDuration(item *gofeed.Item) int {
	if item.ITunesExt == nil || item.ITunesExt.Duration == "" {
		return 0
	}
	seconds, _ := parseDurationToSeconds(item.ITunesExt.Duration)
	return seconds
}

func episodeImage(item *gofeed.Item) string {
	if item.ITunesExt != nil && item.ITunesExt.Image != "" {
		return item.ITunesExt.Image
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	return ""
}

var secondsOnlyPattern = regexp.MustCompile(`^\d+$`)

// parseDurationToSeconds accepts "HH:MM:SS", "MM:SS", or a bare second
// count, grounded on aggregator.py _parse_duration_to_seconds.
func parseDurationToSeconds(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if secondsOnlyPattern.MatchString(s) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	}

	parts := strings.Split(s, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2], true
	case 2:
		return nums[0]*60 + nums[1], true
	default:
		return 0, false
	}
}

func formatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

func (a *Adapter) FilterArticles(_ context.Context, _ *entity.Feed, articles []aggregator.RawArticle) []aggregator.RawArticle {
	return a.filter.Apply(articles)
}

// EnrichArticles builds the artwork/player/metadata/description HTML,
// grounded on aggregator.py enrich_articles.
func (a *Adapter) EnrichArticles(_ context.Context, feed *entity.Feed, _ *entity.UserSettings, articles []aggregator.RawArticle) []aggregator.FinalArticle {
	includePlayer := feed.OptionBool("include_player", true)
	includeDownload := feed.OptionBool("include_download_link", true)
	artworkSize := feedArtworkSize(feed)

	out := make([]aggregator.FinalArticle, 0, len(articles))
	for _, article := range articles {
		mediaURL := article.Hint("media_url")
		mediaType := article.Hint("media_type")
		imageURL := article.Hint("image_url")
		duration, _ := strconv.Atoi(article.Hint("duration"))

		content := buildEpisodeHTML(mediaURL, mediaType, imageURL, duration, article.Content, includePlayer, includeDownload, artworkSize)

		out = append(out, aggregator.FinalArticle{
			Identifier:          article.Identifier,
			Name:                article.Title,
			RawContent:          content,
			Content:             content,
			Date:                article.Date,
			OriginalPublishedAt: article.OriginalPublishedAt(),
			Author:              article.Author,
			Icon:                imageURL,
		})
	}
	return out
}

func buildEpisodeHTML(mediaURL, mediaType, imageURL string, duration int, description string, includePlayer, includeDownload bool, artworkSize int) string {
	var b strings.Builder

	if imageURL != "" {
		fmt.Fprintf(&b, `<div class="podcast-artwork" style="margin-bottom: 1em;"><img src="%s" alt="Episode artwork" style="max-width: %dpx; height: auto; border-radius: 8px;"></div>`,
			imageURL, artworkSize)
	}

	if includePlayer {
		fmt.Fprintf(&b, `<div class="podcast-player" style="margin-bottom: 1em;"><audio controls preload="metadata" style="width: 100%%;"><source src="%s" type="%s">Your browser does not support the audio element.</audio>`,
			mediaURL, mediaType)
	}

	var metaParts []string
	if duration > 0 {
		metaParts = append(metaParts, fmt.Sprintf(`<span class="podcast-duration">Duration: %s</span>`, formatDuration(duration)))
	}
	if includeDownload {
		metaParts = append(metaParts, fmt.Sprintf(`<a href="%s" class="podcast-download" download>Download Episode</a>`, mediaURL))
	}
	if (includePlayer || includeDownload) && len(metaParts) > 0 {
		fmt.Fprintf(&b, `<div style="margin-top: 0.5em; font-size: 0.9em; color: #666;">%s</div>`, strings.Join(metaParts, " | "))
	}

	if includePlayer {
		b.WriteString(`</div>`)
	}

	if description != "" {
		b.WriteString(`<div class="podcast-description"><h4>Show Notes</h4>`)
		b.WriteString(description)
		b.WriteString(`</div>`)
	}

	return b.String()
}

func (a *Adapter) FinalizeArticles(_ context.Context, feed *entity.Feed, articles []aggregator.FinalArticle) []aggregator.FinalArticle {
	sourceURL := a.GetSourceURL(feed)
	for i, article := range articles {
		articles[i].Content = aggregator.Format(article.Name, sourceURL, article.Author, article.Date, "", article.Content)
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
	if partial == "" {
		return nil, nil
	}
	return []aggregator.IdentifierChoice{{Value: partial, Label: partial}}, nil
}

func (a *Adapter) GetDefaultIdentifier() string {
	return ""
}

func (a *Adapter) GetConfigurationFields() []aggregator.ConfigurationField {
	return []aggregator.ConfigurationField{
		{Key: "include_player", Label: "Include Audio Player", Type: "bool", Default: "true"},
		{Key: "include_download_link", Label: "Include Download Link", Type: "bool", Default: "true"},
		{Key: "artwork_size", Label: "Artwork Max Width", Type: "int", Default: strconv.Itoa(defaultArtworkSize)},
	}
}

func feedArtworkSize(feed *entity.Feed) int {
	raw := feed.Option("artwork_size")
	if raw == "" {
		return defaultArtworkSize
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 50 || n > 1000 {
		return defaultArtworkSize
	}
	return n
}
