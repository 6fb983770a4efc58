package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feedreader/internal/aggregator"
	"feedreader/internal/domain/entity"
	"feedreader/internal/headerextract"
)

const defaultCommentLimit = 10

// Adapter is the YouTube channel Aggregator.
type Adapter struct {
	client    *Client
	proxyPath string
}

// New builds a YouTube adapter using httpClient for outbound API calls.
// proxyPath is the local endpoint video embeds are rewritten to point at
// (spec.md §4.6 step 3); pass "" to use the default "/api/youtube-proxy".
func New(httpClient *http.Client, proxyPath string) *Adapter {
	if proxyPath == "" {
		proxyPath = "/api/youtube-proxy"
	}
	return &Adapter{client: NewClient(httpClient), proxyPath: proxyPath}
}

func apiKeyFor(settings *entity.UserSettings) (string, error) {
	if settings == nil || !settings.YouTubeEnabled || settings.YouTubeAPIKey == "" {
		return "", &entity.ValidationError{Field: "youtube", Message: "YouTube is not enabled, or the API key is not configured"}
	}
	return settings.YouTubeAPIKey, nil
}

func (a *Adapter) Validate(ctx context.Context, feed *entity.Feed, settings *entity.UserSettings) error {
	apiKey, err := apiKeyFor(settings)
	if err != nil {
		return err
	}
	_, err = a.client.ResolveChannelID(ctx, apiKey, feed.Identifier)
	if err != nil {
		return &entity.ValidationError{Field: "identifier", Message: err.Error()}
	}
	return nil
}

// sourceData is what FetchSourceData hands to ParseToRawArticles.
type sourceData struct {
	videos       []video
	channelTitle string
}

func (a *Adapter) FetchSourceData(ctx context.Context, feed *entity.Feed, settings *entity.UserSettings, limit int) (any, error) {
	apiKey, err := apiKeyFor(settings)
	if err != nil {
		return nil, err
	}

	channelID, err := a.client.ResolveChannelID(ctx, apiKey, feed.Identifier)
	if err != nil {
		return nil, fmt.Errorf("youtube: resolving %q: %w", feed.Identifier, err)
	}

	channelData, err := a.client.FetchChannelData(ctx, apiKey, channelID)
	if err != nil {
		return nil, fmt.Errorf("youtube: fetching channel %s: %w", channelID, err)
	}

	desired := limit
	if desired <= 0 {
		desired = feed.DailyLimit
	}

	var videos []video
	if channelData.UploadsPlaylistID != "" {
		videos, err = a.client.FetchVideosFromPlaylist(ctx, apiKey, channelData.UploadsPlaylistID, desired)
	} else {
		videos, err = a.client.FetchVideosViaSearch(ctx, apiKey, channelID, desired)
	}
	if err != nil {
		return nil, fmt.Errorf("youtube: listing videos for channel %s: %w", channelID, err)
	}

	return sourceData{videos: videos, channelTitle: channelData.Title}, nil
}

func (a *Adapter) ParseToRawArticles(_ context.Context, _ *entity.Feed, source any) ([]aggregator.RawArticle, error) {
	src, ok := source.(sourceData)
	if !ok {
		return nil, fmt.Errorf("youtube: unexpected source type %T", source)
	}

	out := make([]aggregator.RawArticle, 0, len(src.videos))
	for _, v := range src.videos {
		date := time.Now()
		if v.Snippet.PublishedAt != "" {
			if parsed, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
				date = parsed
			}
		}

		icon := firstNonEmpty(v.Snippet.Thumbnails.Maxres.URL, v.Snippet.Thumbnails.High.URL, v.Snippet.Thumbnails.Medium.URL)

		out = append(out, aggregator.RawArticle{
			Identifier: "https://www.youtube.com/watch?v=" + v.ID,
			Title:      v.Snippet.Title,
			URL:        "https://www.youtube.com/watch?v=" + v.ID,
			Author:     src.channelTitle,
			Content:    v.Snippet.Description,
			Date:       date,
			Hints: map[string]string{
				"video_id": v.ID,
				"icon":     icon,
			},
		})
	}
	return out, nil
}

func (a *Adapter) FilterArticles(_ context.Context, _ *entity.Feed, articles []aggregator.RawArticle) []aggregator.RawArticle {
	return aggregator.NewDefaultFilter().Apply(articles)
}

// EnrichArticles fetches top-level comments per video and builds the
// description+comments HTML, grounded on aggregator.py enrich_articles.
func (a *Adapter) EnrichArticles(ctx context.Context, feed *entity.Feed, settings *entity.UserSettings, articles []aggregator.RawArticle) []aggregator.FinalArticle {
	apiKey, err := apiKeyFor(settings)
	if err != nil {
		return nil
	}
	commentLimit := feedCommentLimit(feed)

	out := make([]aggregator.FinalArticle, 0, len(articles))
	for _, article := range articles {
		videoID := article.Hint("video_id")
		comments := a.client.FetchVideoComments(ctx, apiKey, videoID, commentLimit)
		content := buildContentHTML(article.Content, comments)

		out = append(out, aggregator.FinalArticle{
			Identifier:          article.Identifier,
			Name:                article.Title,
			RawContent:          content,
			Content:             content,
			Date:                article.Date,
			OriginalPublishedAt: article.OriginalPublishedAt(),
			Author:              article.Author,
			Icon:                article.Hint("icon"),
		})
	}
	return out
}

// FinalizeArticles prepends the proxy video embed to the formatted body;
// the header image is intentionally left out in favor of the embed,
// matching aggregator.py finalize_articles (header_image_url=None).
func (a *Adapter) FinalizeArticles(_ context.Context, feed *entity.Feed, articles []aggregator.FinalArticle) []aggregator.FinalArticle {
	sourceURL := a.GetSourceURL(feed)
	for i, article := range articles {
		videoID := videoIDFromWatchURL(article.Identifier)
		embed := headerextract.YouTubeProxyIframe(a.proxyPath, videoID)
		formatted := aggregator.Format(article.Name, sourceURL, article.Author, article.Date, "", article.Content)
		articles[i].Content = embed + formatted
	}
	return articles
}

func videoIDFromWatchURL(watchURL string) string {
	const marker = "v="
	idx := strings.Index(watchURL, marker)
	if idx < 0 {
		return ""
	}
	return watchURL[idx+len(marker):]
}

func (a *Adapter) GetSourceURL(feed *entity.Feed) string {
	id := feed.Identifier
	switch {
	case strings.HasPrefix(id, "UC"):
		return "https://www.youtube.com/channel/" + id
	case strings.HasPrefix(id, "@"):
		return "https://www.youtube.com/" + id
	default:
		return "https://www.youtube.com"
	}
}

func (a *Adapter) NormalizeIdentifier(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &entity.ValidationError{Field: "identifier", Message: "channel identifier is required"}
	}
	return trimmed, nil
}

// GetIdentifierChoices searches for channels by name, grounded on
// aggregator.py get_identifier_choices. It requires settings to carry a
// YouTube API key, so callers that cannot supply one get no suggestions.
func (a *Adapter) GetIdentifierChoicesWithSettings(ctx context.Context, partial string, settings *entity.UserSettings) ([]aggregator.IdentifierChoice, error) {
	if partial == "" {
		return nil, nil
	}
	apiKey, err := apiKeyFor(settings)
	if err != nil {
		return nil, nil
	}
	items, err := a.client.SearchChannels(ctx, apiKey, partial, 10)
	if err != nil {
		return nil, nil
	}

	choices := make([]aggregator.IdentifierChoice, 0, len(items))
	for _, item := range items {
		if item.ID.ChannelID == "" || item.Snippet.Title == "" {
			continue
		}
		value := item.ID.ChannelID
		if item.Snippet.CustomURL != "" {
			value = item.Snippet.CustomURL
		}
		choices = append(choices, aggregator.IdentifierChoice{
			Value: value,
			Label: fmt.Sprintf("%s (%s)", item.Snippet.Title, value),
		})
	}
	return choices, nil
}

// GetIdentifierChoices satisfies aggregator.Aggregator; channel search
// needs a per-user API key that this signature has no room for, so it
// always returns no suggestions. Wiring should prefer
// GetIdentifierChoicesWithSettings when a request-scoped UserSettings is
// available.
func (a *Adapter) GetIdentifierChoices(_ context.Context, _ string) ([]aggregator.IdentifierChoice, error) {
	return nil, nil
}

func (a *Adapter) GetDefaultIdentifier() string {
	return "@GoogleDevelopers"
}

func (a *Adapter) GetConfigurationFields() []aggregator.ConfigurationField {
	return []aggregator.ConfigurationField{
		{Key: "comment_limit", Label: "Comments per video", Type: "int", Default: strconv.Itoa(defaultCommentLimit)},
	}
}

func feedCommentLimit(feed *entity.Feed) int {
	raw := feed.Option("comment_limit")
	if raw == "" {
		return defaultCommentLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultCommentLimit
	}
	return n
}
