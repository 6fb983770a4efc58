package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"feedreader/internal/domain/entity"
	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"
)

// oauthBase is Reddit's OAuth API host; a var so tests can point it at a
// local fake server.
var oauthBase = "https://oauth.reddit.com"

// Client wraps *http.Client with the Reddit OAuth2 application-only token
// cache and the retry/circuit-breaker composition rss.go uses, grounded on
// original_source/core/aggregators/reddit/{urls,posts,comments}.py.
type Client struct {
	http           *http.Client
	tokens         *tokenCache
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClient builds a Reddit API client using httpClient for outbound
// requests.
func NewClient(httpClient *http.Client) *Client {
	return &Client{
		http:           httpClient,
		tokens:         newTokenCache(),
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (c *Client) authHeader(ctx context.Context, clientID, clientSecret, userAgent string) (string, string, error) {
	token, err := c.tokens.Get(ctx, c.http, clientID, clientSecret, userAgent)
	if err != nil {
		return "", "", err
	}
	return "Bearer " + token, userAgent, nil
}

func (c *Client) get(ctx context.Context, creds credentials, rawURL string, query url.Values) ([]byte, error) {
	auth, ua, err := c.authHeader(ctx, creds.clientID, creds.clientSecret, creds.userAgent)
	if err != nil {
		return nil, fmt.Errorf("reddit: auth: %w", err)
	}

	full := rawURL
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var body []byte
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		result, execErr := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doGet(ctx, full, auth, ua)
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

func (c *Client) doGet(ctx context.Context, rawURL, authHeader, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("reddit: request to %s failed: %w", rawURL, &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)})
	}
	return body, nil
}

// asArticleSkip converts a 4xx failure from get/doGet into
// *entity.ArticleSkipError, matching the is_4xx_error check
// comments.py/posts.py apply around their own per-article requests (a
// subreddit-listing 404/403 is a whole-feed failure instead, so FetchListing
// does not call this).
func asArticleSkip(url string, err error) error {
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
		return fmt.Errorf("%w", entity.NewArticleSkipError(url, httpErr.StatusCode))
	}
	return err
}

type credentials struct {
	clientID     string
	clientSecret string
	userAgent    string
}

// FetchListing retrieves up to limit posts from r/<subreddit>/<sort>
// (default "hot"), overfetched by the caller per spec.md §4.2.
func (c *Client) FetchListing(ctx context.Context, creds credentials, subreddit, sort string, limit int) ([]Post, error) {
	if sort == "" {
		sort = "hot"
	}
	if limit <= 0 || limit > 100 {
		limit = min(max(limit, 1), 100)
	}

	rawURL := fmt.Sprintf("%s/r/%s/%s", oauthBase, subreddit, sort)
	body, err := c.get(ctx, creds, rawURL, url.Values{"limit": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit: decode listing: %w", err)
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

// FetchPost retrieves a single post (and its top-level comments) by id,
// grounded on posts.py fetch_reddit_post.
func (c *Client) FetchPost(ctx context.Context, creds credentials, subreddit, postID string) (*Post, []Comment, error) {
	rawURL := fmt.Sprintf("%s/r/%s/comments/%s", oauthBase, subreddit, postID)
	body, err := c.get(ctx, creds, rawURL, url.Values{"sort": {"best"}})
	if err != nil {
		return nil, nil, asArticleSkip(rawURL, err)
	}
	return parseCommentsPageResponse(body)
}

// FetchComments retrieves up to limit top-level comments for a post,
// filtering bots and sorting by score descending, grounded on
// comments.py fetch_post_comments.
func (c *Client) FetchComments(ctx context.Context, creds credentials, subreddit, postID string, limit int) ([]Comment, error) {
	_, comments, err := c.FetchPost(ctx, creds, subreddit, postID)
	if err != nil {
		return nil, err
	}

	filtered := make([]Comment, 0, len(comments))
	for _, cm := range comments {
		author := strings.ToLower(cm.Author)
		if author == "" || strings.HasSuffix(author, "_bot") || strings.HasSuffix(author, "-bot") || author == "automoderator" {
			continue
		}
		filtered = append(filtered, cm)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func parseCommentsPageResponse(body []byte) (*Post, []Comment, error) {
	var page []struct {
		Data struct {
			Children []struct {
				Data json.RawMessage `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &page); err != nil || len(page) < 2 {
		return nil, nil, fmt.Errorf("reddit: unexpected comments-page response shape")
	}

	var post *Post
	if len(page[0].Data.Children) > 0 {
		var p Post
		if err := json.Unmarshal(page[0].Data.Children[0].Data, &p); err == nil {
			post = &p
		}
	}

	comments := make([]Comment, 0, len(page[1].Data.Children))
	for _, child := range page[1].Data.Children {
		var c Comment
		if err := json.Unmarshal(child.Data, &c); err != nil {
			continue
		}
		if c.Body == "" || c.Body == "[deleted]" || c.Body == "[removed]" {
			continue
		}
		comments = append(comments, c)
	}
	return post, comments, nil
}

// FetchSubredditIcon resolves r/<subreddit>'s icon URL, preferring
// icon_img over community_icon (urls.py fetch_subreddit_info).
func (c *Client) FetchSubredditIcon(ctx context.Context, creds credentials, subreddit string) (string, error) {
	body, err := c.get(ctx, creds, fmt.Sprintf("%s/r/%s/about", oauthBase, subreddit), nil)
	if err != nil {
		return "", err
	}
	var about subredditAbout
	if err := json.Unmarshal(body, &about); err != nil {
		return "", fmt.Errorf("reddit: decode subreddit about: %w", err)
	}
	raw := about.Data.IconImg
	if raw == "" {
		raw = about.Data.CommunityIcon
	}
	if raw == "" {
		return "", nil
	}
	return fixMediaURL(decodeEntities(raw)), nil
}
