// Package youtube implements the YouTube channel Aggregator (spec.md §4.4
// "YouTube"): videos are listed via the YouTube Data API v3 using a
// per-user API key, enriched with top-level comments, and embedded through
// the shared proxy-iframe helper so articles never call out to youtube.com
// directly, grounded on
// original_source/core/aggregators/youtube/aggregator.py and
// original_source/core/aggregators/utils/youtube_client.py.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"
)

// apiBase is the YouTube Data API v3 host; a var so tests can point it at a
// local fake server.
var apiBase = "https://www.googleapis.com/youtube/v3"

// Client wraps *http.Client with the retry/circuit-breaker composition
// rss.go and the Reddit client use.
type Client struct {
	http           *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClient builds a YouTube API client using httpClient for outbound
// requests.
func NewClient(httpClient *http.Client) *Client {
	return &Client{
		http:           httpClient,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (c *Client) get(ctx context.Context, apiKey, endpoint string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", apiKey)
	rawURL := fmt.Sprintf("%s/%s?%s", apiBase, endpoint, query.Encode())

	var body []byte
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		result, execErr := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doGet(ctx, rawURL)
		})
		if execErr != nil {
			if errors.Is(execErr, gobreaker.ErrOpenState) {
				return execErr
			}
			return execErr
		}
		body = result.([]byte)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("youtube: request failed: %w", &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)})
	}
	return body, nil
}

// ResolveChannelID resolves a channel identifier (UC-id, @handle, legacy
// username, or any of those embedded in a youtube.com URL) to a canonical
// channel ID, grounded on youtube_client.py resolve_channel_id.
func (c *Client) ResolveChannelID(ctx context.Context, apiKey, identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", fmt.Errorf("youtube: channel identifier is required")
	}

	if strings.HasPrefix(id, "UC") && len(id) >= 24 {
		ok, err := c.validateChannelID(ctx, apiKey, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("youtube: channel ID not found: %s", id)
		}
		return id, nil
	}

	var handle string
	if strings.Contains(id, "youtube.com") || strings.Contains(id, "youtu.be") {
		channelID, extractedHandle := extractFromURL(id)
		if channelID != "" {
			return c.ResolveChannelID(ctx, apiKey, channelID)
		}
		handle = extractedHandle
	} else {
		handle = strings.TrimPrefix(id, "@")
	}

	if handle == "" {
		return "", fmt.Errorf("youtube: could not parse channel identifier %q", identifier)
	}

	if channelID, err := c.resolveViaSearch(ctx, apiKey, handle); err == nil && channelID != "" {
		return channelID, nil
	}
	if channelID, err := c.resolveViaUsername(ctx, apiKey, handle); err == nil && channelID != "" {
		return channelID, nil
	}
	return "", fmt.Errorf("youtube: channel handle not found: @%s", handle)
}

func (c *Client) validateChannelID(ctx context.Context, apiKey, channelID string) (bool, error) {
	body, err := c.get(ctx, apiKey, "channels", url.Values{"part": {"id"}, "id": {channelID}})
	if err != nil {
		return false, err
	}
	var resp channelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("youtube: decode channels response: %w", err)
	}
	return len(resp.Items) > 0, nil
}

// extractFromURL mirrors youtube_client.py _extract_from_url: channel/<id>
// and the channel_id query param yield a channel ID; @handle, c/<handle>,
// and user/<handle> yield a handle to resolve via search.
func extractFromURL(raw string) (channelID, handle string) {
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] == "" {
		if qs := parsed.Query().Get("channel_id"); qs != "" {
			return qs, ""
		}
		return "", ""
	}

	switch {
	case strings.HasPrefix(segments[0], "@"):
		return "", strings.TrimPrefix(segments[0], "@")
	case segments[0] == "c" || segments[0] == "user":
		if len(segments) > 1 {
			return "", segments[1]
		}
	case segments[0] == "channel":
		if len(segments) > 1 {
			return segments[1], ""
		}
	}
	if qs := parsed.Query().Get("channel_id"); qs != "" {
		return qs, ""
	}
	return "", ""
}

func (c *Client) resolveViaSearch(ctx context.Context, apiKey, handle string) (string, error) {
	q := handle
	if !strings.HasPrefix(q, "@") {
		q = "@" + q
	}
	body, err := c.get(ctx, apiKey, "search", url.Values{
		"part": {"snippet"}, "q": {q}, "type": {"channel"}, "maxResults": {"10"},
	})
	if err != nil {
		return "", err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("youtube: decode search response: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}

	normHandle := strings.ToLower(strings.TrimPrefix(handle, "@"))
	for _, item := range resp.Items {
		if strings.ToLower(strings.TrimPrefix(item.Snippet.CustomURL, "@")) == normHandle {
			return item.ID.ChannelID, nil
		}
	}
	for _, item := range resp.Items {
		title := strings.ToLower(item.Snippet.Title)
		if strings.Contains(title, normHandle) || strings.Contains(normHandle, title) {
			return item.ID.ChannelID, nil
		}
	}
	return resp.Items[0].ID.ChannelID, nil
}

func (c *Client) resolveViaUsername(ctx context.Context, apiKey, handle string) (string, error) {
	body, err := c.get(ctx, apiKey, "channels", url.Values{"part": {"id"}, "forUsername": {handle}})
	if err != nil {
		return "", err
	}
	var resp channelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("youtube: decode channels response: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].ID, nil
}

// ChannelData is the subset of channel metadata the aggregator needs.
type ChannelData struct {
	Title             string
	UploadsPlaylistID string
	IconURL           string
}

// FetchChannelData fetches the channel's title, uploads-playlist ID, and
// icon URL, grounded on youtube_client.py fetch_channel_data.
func (c *Client) FetchChannelData(ctx context.Context, apiKey, channelID string) (ChannelData, error) {
	body, err := c.get(ctx, apiKey, "channels", url.Values{"part": {"contentDetails,snippet"}, "id": {channelID}})
	if err != nil {
		return ChannelData{}, err
	}
	var resp channelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ChannelData{}, fmt.Errorf("youtube: decode channels response: %w", err)
	}
	if len(resp.Items) == 0 {
		return ChannelData{}, fmt.Errorf("youtube: channel not found: %s", channelID)
	}
	ch := resp.Items[0]
	icon := firstNonEmpty(ch.Snippet.Thumbnails.High.URL, ch.Snippet.Thumbnails.Medium.URL, ch.Snippet.Thumbnails.Default.URL)
	return ChannelData{
		Title:             ch.Snippet.Title,
		UploadsPlaylistID: ch.ContentDetails.RelatedPlaylists.Uploads,
		IconURL:           icon,
	}, nil
}

// FetchVideosFromPlaylist paginates playlistItems.list for playlistID and
// fetches full details for each video found, up to maxResults, grounded on
// youtube_client.py fetch_videos_from_playlist.
func (c *Client) FetchVideosFromPlaylist(ctx context.Context, apiKey, playlistID string, maxResults int) ([]video, error) {
	var videos []video
	pageToken := ""
	for len(videos) < maxResults {
		query := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {itoa(min(50, maxResults-len(videos)))},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		body, err := c.get(ctx, apiKey, "playlistItems", query)
		if err != nil {
			return nil, err
		}
		var resp playlistItemsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("youtube: decode playlistItems response: %w", err)
		}
		if len(resp.Items) == 0 {
			break
		}
		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			ids = append(ids, item.ContentDetails.VideoID)
		}
		details, err := c.FetchVideoDetails(ctx, apiKey, ids)
		if err != nil {
			return nil, err
		}
		videos = append(videos, details...)

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	if len(videos) > maxResults {
		videos = videos[:maxResults]
	}
	return videos, nil
}

// FetchVideoDetails fetches full metadata for up to 50 video IDs per
// batch, grounded on youtube_client.py fetch_video_details.
func (c *Client) FetchVideoDetails(ctx context.Context, apiKey string, ids []string) ([]video, error) {
	var all []video
	for i := 0; i < len(ids); i += 50 {
		end := min(i+50, len(ids))
		batch := ids[i:end]
		body, err := c.get(ctx, apiKey, "videos", url.Values{
			"part": {"snippet,statistics,contentDetails"}, "id": {strings.Join(batch, ",")},
		})
		if err != nil {
			return nil, err
		}
		var resp videoListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("youtube: decode videos response: %w", err)
		}
		all = append(all, resp.Items...)
	}
	return all, nil
}

// FetchVideoComments paginates commentThreads.list for videoID ordered by
// relevance, dropping deleted/removed bodies, grounded on
// youtube_client.py fetch_video_comments. A failure here never aborts the
// whole video: it returns an empty slice and nil error, matching the
// Python original's own try/except around this call.
func (c *Client) FetchVideoComments(ctx context.Context, apiKey, videoID string, maxResults int) []Comment {
	if maxResults <= 0 {
		return nil
	}
	var comments []Comment
	pageToken := ""
	for len(comments) < maxResults {
		query := url.Values{
			"part":       {"snippet"},
			"videoId":    {videoID},
			"maxResults": {itoa(min(100, maxResults-len(comments)))},
			"order":      {"relevance"},
			"textFormat": {"html"},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		body, err := c.get(ctx, apiKey, "commentThreads", query)
		if err != nil {
			return comments
		}
		var resp commentThreadsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return comments
		}
		if len(resp.Items) == 0 {
			break
		}
		for _, item := range resp.Items {
			snippet := item.Snippet.TopLevelComment.Snippet
			if snippet.TextDisplay == "" || snippet.TextDisplay == "[deleted]" || snippet.TextDisplay == "[removed]" {
				continue
			}
			comments = append(comments, Comment{Author: snippet.AuthorDisplayName, Text: snippet.TextDisplay})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	if len(comments) > maxResults {
		comments = comments[:maxResults]
	}
	return comments
}

// FetchVideosViaSearch is the fallback used when a channel has no uploads
// playlist, grounded on youtube_client.py fetch_videos_via_search.
func (c *Client) FetchVideosViaSearch(ctx context.Context, apiKey, channelID string, maxResults int) ([]video, error) {
	var videos []video
	pageToken := ""
	for len(videos) < maxResults {
		query := url.Values{
			"part":       {"id"},
			"channelId":  {channelID},
			"type":       {"video"},
			"order":      {"date"},
			"maxResults": {itoa(min(50, maxResults-len(videos)))},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		body, err := c.get(ctx, apiKey, "search", query)
		if err != nil {
			return nil, err
		}
		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("youtube: decode search response: %w", err)
		}
		if len(resp.Items) == 0 {
			break
		}
		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			ids = append(ids, item.ID.VideoID)
		}
		details, err := c.FetchVideoDetails(ctx, apiKey, ids)
		if err != nil {
			return nil, err
		}
		videos = append(videos, details...)

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	if len(videos) > maxResults {
		videos = videos[:maxResults]
	}
	return videos, nil
}

// SearchChannels backs GetIdentifierChoices, grounded on aggregator.py
// get_identifier_choices.
func (c *Client) SearchChannels(ctx context.Context, apiKey, query string, maxResults int) ([]searchItem, error) {
	body, err := c.get(ctx, apiKey, "search", url.Values{
		"part": {"snippet"}, "q": {query}, "type": {"channel"}, "maxResults": {itoa(maxResults)},
	})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube: decode search response: %w", err)
	}
	return resp.Items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
