package reddit

import (
	"html"
	"regexp"
	"strings"

	"feedreader/internal/domain/entity"
)

var subredditURLPattern = regexp.MustCompile(`(?:reddit\.com)?/r/(\w+)`)
var subredditNamePattern = regexp.MustCompile(`^\w{2,21}$`)

// decodeEntities undoes the small set of HTML entities Reddit's API
// sometimes embeds in URL fields, mirroring urls.py's
// decode_html_entities_in_url (a fixed replace chain rather than full HTML
// entity decoding, since these are URL query strings, not markup).
func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	return s
}

// fixMediaURL decodes entities in preview/gallery CDN URLs, re-unescaping
// the "&amp;" Reddit's redditmedia.com/external-preview.redd.it links
// double-encode (urls.py fix_reddit_media_url).
func fixMediaURL(url string) string {
	if url == "" {
		return ""
	}
	decoded := decodeEntities(url)
	if strings.Contains(decoded, "styles.redditmedia.com") || strings.Contains(decoded, "external-preview.redd.it") {
		return strings.ReplaceAll(decoded, "&amp;", "&")
	}
	return decoded
}

// normalizeSubreddit extracts a bare subreddit name from a URL, an "r/name"
// or "/r/name" prefix, or a bare name, matching urls.py normalize_subreddit.
func normalizeSubreddit(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if m := subredditURLPattern.FindStringSubmatch(identifier); m != nil {
		return m[1]
	}
	if strings.HasPrefix(identifier, "/r/") {
		return identifier[3:]
	}
	if strings.HasPrefix(identifier, "r/") {
		return identifier[2:]
	}
	return identifier
}

func validateSubredditName(subreddit string) error {
	if subreddit == "" {
		return &entity.ValidationError{Field: "identifier", Message: "subreddit is required"}
	}
	if !subredditNamePattern.MatchString(subreddit) {
		return &entity.ValidationError{Field: "identifier", Message: "invalid subreddit name: use 2-21 alphanumeric characters or underscores"}
	}
	return nil
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}
