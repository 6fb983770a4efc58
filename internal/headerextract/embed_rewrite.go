package headerextract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var youTubeHostPattern = regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com`)

// RewriteYouTubeIframes replaces the src of any <iframe> pointing at
// youtube.com/youtube-nocookie.com with the proxy-iframe wrapper, used
// during body processing so embeds never call out to YouTube directly
// (spec.md §4.6 "embed rewriting").
func RewriteYouTubeIframes(doc *goquery.Document, proxyPath string) {
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || !youTubeHostPattern.MatchString(src) {
			return
		}
		id, ok := ExtractYouTubeID(src)
		if !ok {
			return
		}
		replacement := YouTubeProxyIframe(proxyPath, id)
		newDoc, err := goquery.NewDocumentFromReader(strings.NewReader(replacement))
		if err != nil {
			return
		}
		s.ReplaceWithSelection(newDoc.Find("div"))
	})
}

// MeinMMOEmbedKind is the provider a Mein-MMO figure-embed fingerprint
// resolves to.
type MeinMMOEmbedKind int

const (
	MeinMMOEmbedUnknown MeinMMOEmbedKind = iota
	MeinMMOEmbedYouTube
	MeinMMOEmbedTwitter
	MeinMMOEmbedReddit
)

// meinMMOFingerprints maps CSS class substrings Mein-MMO uses on its
// <figure class="embed ..."> wrappers to the provider they represent.
var meinMMOFingerprints = []struct {
	substr string
	kind   MeinMMOEmbedKind
}{
	{"embed-youtube", MeinMMOEmbedYouTube},
	{"youtube-embed", MeinMMOEmbedYouTube},
	{"embed-twitter", MeinMMOEmbedTwitter},
	{"twitter-embed", MeinMMOEmbedTwitter},
	{"embed-reddit", MeinMMOEmbedReddit},
	{"reddit-embed", MeinMMOEmbedReddit},
}

// ClassifyMeinMMOEmbed inspects a figure's class list and returns which
// provider handler should render it, or MeinMMOEmbedUnknown if none match.
func ClassifyMeinMMOEmbed(classList string) MeinMMOEmbedKind {
	lower := strings.ToLower(classList)
	for _, fp := range meinMMOFingerprints {
		if strings.Contains(lower, fp.substr) {
			return fp.kind
		}
	}
	return MeinMMOEmbedUnknown
}
