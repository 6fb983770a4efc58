package headerextract

import (
	"context"
	"fmt"
	"regexp"
)

// youTubeIDPatterns enumerate the URL forms a valid 11-character video ID
// can appear in (spec.md §4.6 step 3): youtu.be/<id>, youtube.com/watch?v=<id>,
// /embed/<id>, /v/<id>, /shorts/<id>.
var youTubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)youtube\.com/v/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
}

// ExtractYouTubeID returns the 11-character video ID embedded in url, if any.
func ExtractYouTubeID(url string) (string, bool) {
	for _, re := range youTubeIDPatterns {
		if match := re.FindStringSubmatch(url); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// youTubeStrategy never embeds youtube.com directly; it always points the
// iframe at the local proxy endpoint (spec.md §4.6 step 3, §6).
type youTubeStrategy struct {
	proxyPath string
}

func (s *youTubeStrategy) CanHandle(url string) bool {
	_, ok := ExtractYouTubeID(url)
	return ok
}

func (s *youTubeStrategy) Create(_ context.Context, url string, _ bool) (string, error) {
	id, ok := ExtractYouTubeID(url)
	if !ok {
		return "", fmt.Errorf("headerextract: youtube strategy: no video id in %q", url)
	}
	return YouTubeProxyIframe(s.proxyPath, id), nil
}

// YouTubeProxyIframe renders the responsive iframe wrapper pointing at the
// local youtube-proxy endpoint for videoID.
func YouTubeProxyIframe(proxyPath, videoID string) string {
	if proxyPath == "" {
		proxyPath = "/api/youtube-proxy"
	}
	return fmt.Sprintf(
		`<div class="embed-responsive embed-responsive-16by9"><iframe src="%s?v=%s" allowfullscreen loading="lazy"></iframe></div>`,
		proxyPath, videoID,
	)
}

func responsiveIframe(src string) string {
	return fmt.Sprintf(
		`<div class="embed-responsive embed-responsive-16by9"><iframe src="%s" allowfullscreen loading="lazy"></iframe></div>`,
		src,
	)
}
