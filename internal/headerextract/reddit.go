package headerextract

import (
	"context"
	"fmt"
	"regexp"

	"feedreader/internal/imageservice"
)

// redditEmbedHosts matches URLs that are already a renderable Reddit embed
// (vxreddit mirrors, Reddit's own /embed form, or a v.redd.it/embed video).
var redditEmbedPattern = regexp.MustCompile(`(?i)(vxreddit\.com|reddit\.com/.*?/?embed|v\.redd\.it/.*embed)`)

// redditPostPattern matches a canonical Reddit post URL: /r/<sub>/comments/<id>/...
var redditPostPattern = regexp.MustCompile(`(?i)/r/([A-Za-z0-9_]+)/comments/([A-Za-z0-9]+)`)

// redditBareVideoPattern matches a bare v.redd.it video link that is not an
// embed URL; spec.md §4.6 step 4 excludes these from the generic-image
// fallback (there is no HTML page to scrape an og:image from).
var redditBareVideoPattern = regexp.MustCompile(`(?i)^https?://v\.redd\.it/`)

// redditEmbedStrategy wraps an already-embeddable Reddit URL in a
// responsive iframe. It must run before redditPostStrategy since an embed
// URL can also look like a post URL once query parameters are stripped.
type redditEmbedStrategy struct{}

func (s *redditEmbedStrategy) CanHandle(url string) bool {
	return redditEmbedPattern.MatchString(url)
}

func (s *redditEmbedStrategy) Create(_ context.Context, url string, _ bool) (string, error) {
	return responsiveIframe(url), nil
}

// redditPostStrategy fetches the submitting subreddit's icon and renders it
// as the header image for a canonical Reddit post URL.
type redditPostStrategy struct {
	reddit  RedditIconLookup
	fetcher ContentFetcher
}

func (s *redditPostStrategy) CanHandle(url string) bool {
	return redditPostPattern.MatchString(url) && !redditEmbedPattern.MatchString(url)
}

func (s *redditPostStrategy) Create(ctx context.Context, url string, forHeader bool) (string, error) {
	if s.reddit == nil {
		return "", fmt.Errorf("headerextract: reddit post strategy: no icon lookup configured")
	}
	match := redditPostPattern.FindStringSubmatch(url)
	if match == nil {
		return "", fmt.Errorf("headerextract: reddit post strategy: %q did not match", url)
	}
	subreddit := match[1]

	iconURL, err := s.reddit.SubredditIconURL(ctx, subreddit)
	if err != nil {
		return "", wrapStrategyErr("reddit post icon lookup", err)
	}
	if iconURL == "" {
		return "", fmt.Errorf("headerextract: reddit post strategy: %s has no icon", subreddit)
	}

	data, contentType, err := s.fetcher.Get(ctx, iconURL)
	if err != nil {
		return "", wrapStrategyErr("reddit post icon fetch", err)
	}
	result, err := imageservice.Process(data, contentType, forHeader)
	if err != nil {
		return "", fmt.Errorf("headerextract: reddit post icon process: %w", err)
	}
	return fmt.Sprintf(`<img src="%s" alt="%s icon">`, result.DataURI, subreddit), nil
}
