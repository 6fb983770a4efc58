package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedreader/internal/aggregator/fullwebsite"
)

// extractMeinMMOContent combines every "div.gp-entry-content" node present
// in the document (multi-page articles repeat the selector once per page,
// already concatenated into one document by the time this runs) into a
// single wrapper, dropping the "Weiter geht es auf Seite N" pagination
// markers WordPress injects between pages, grounded on
// original_source/core/aggregators/mein_mmo/content_extraction.py.
func extractMeinMMOContent(_ context.Context, _ fullwebsite.PageFetcher, doc *goquery.Document, _ string) (*goquery.Selection, error) {
	contentDivs := doc.Find("div.gp-entry-content")
	if contentDivs.Length() == 0 {
		return nil, fmt.Errorf("mein-mmo: no .gp-entry-content found")
	}

	wrapper := newContentWrapper("gp-entry-content")
	contentDivs.Each(func(_ int, div *goquery.Selection) {
		div.Contents().Each(func(_ int, child *goquery.Selection) {
			wrapper.AppendSelection(child)
		})
	})

	wrapper.Find("em").Each(func(_ int, em *goquery.Selection) {
		if !meinMMOPageMarker.MatchString(em.Text()) {
			return
		}
		if p := em.Closest("p"); p.Length() > 0 {
			p.Remove()
		} else {
			em.Remove()
		}
	})

	return wrapper, nil
}

var (
	meinMMOYouTubeEmbedContent = regexp.MustCompile(`(?:youtube\.com/embed/|youtube-nocookie\.com/embed/)([a-zA-Z0-9_-]{11})`)
	meinMMOYouTubeLink         = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)
)

// processMeinMMOEmbeds rewrites <figure> embeds for YouTube, Twitter/X and
// Reddit into plain iframes/links, matching embed_processors.py's
// strategy chain (figures nothing recognizes are left untouched).
func processMeinMMOEmbeds(content *goquery.Selection) {
	content.Find("figure").Each(func(_ int, figure *goquery.Selection) {
		class, _ := figure.Attr("class")
		sanitizedClass, _ := figure.Attr("data-sanitized-class")
		combined := class + " " + sanitizedClass

		switch {
		case containsAny(combined, "wp-block-embed-youtube", "is-provider-youtube", "embed-youtube"):
			replaceMeinMMOYouTubeEmbed(figure)
		case meinMMOFindLink(figure, "twitter.com", "x.com") != "":
			replaceMeinMMOTwitterEmbed(figure)
		case containsAny(combined, "provider-reddit", "embed-reddit"):
			replaceMeinMMORedditEmbed(figure)
		}
	})
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func meinMMOFindLink(figure *goquery.Selection, domains ...string) string {
	var found string
	figure.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if containsAny(href, domains...) {
			found = href
			return false
		}
		return true
	})
	return found
}

func replaceMeinMMOYouTubeEmbed(figure *goquery.Selection) {
	embedContent, _ := figure.Attr("data-sanitized-data-embed-content")
	videoID := ""
	if m := meinMMOYouTubeEmbedContent.FindStringSubmatch(embedContent); m != nil {
		videoID = m[1]
	}
	if videoID == "" {
		figure.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if m := meinMMOYouTubeLink.FindStringSubmatch(href); m != nil {
				videoID = m[1]
				return false
			}
			return true
		})
	}
	if videoID == "" {
		figure.Remove()
		return
	}

	caption := ""
	if fc := figure.Find("figcaption").First(); fc.Length() > 0 {
		caption = "<p>" + strings.TrimSpace(fc.Text()) + "</p>"
	}
	replacement := fmt.Sprintf(
		`<div data-sanitized-class="youtube-embed"><iframe src="https://www.youtube-nocookie.com/embed/%s" width="560" height="315" frameborder="0" allowfullscreen></iframe>%s</div>`,
		videoID, caption,
	)
	figure.ReplaceWithHtml(replacement)
}

func replaceMeinMMOTwitterEmbed(figure *goquery.Selection) {
	link := meinMMOFindLink(figure, "twitter.com", "x.com")
	if link == "" {
		figure.Remove()
		return
	}
	clean := strings.SplitN(link, "?", 2)[0]

	caption := ""
	if fc := figure.Find("figcaption").First(); fc.Length() > 0 {
		caption = "<br><em>" + strings.TrimSpace(fc.Text()) + "</em>"
	}
	replacement := fmt.Sprintf(`<p><a href="%s" target="_blank" rel="noopener">View on X/Twitter: %s</a>%s</p>`, clean, clean, caption)
	figure.ReplaceWithHtml(replacement)
}

func replaceMeinMMORedditEmbed(figure *goquery.Selection) {
	link := meinMMOFindLink(figure, "reddit.com")
	if link == "" {
		figure.Remove()
		return
	}
	clean := strings.SplitN(link, "?", 2)[0]

	imgPart := ""
	if img := figure.Find("img").First(); img.Length() > 0 {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		if src != "" {
			imgPart = fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener"><img src="%s" alt="Reddit post"></a><br>`, clean, src)
		}
	}
	replacement := fmt.Sprintf(`<p>%s<a href="%s" target="_blank" rel="noopener">View on Reddit</a></p>`, imgPart, clean)
	figure.ReplaceWithHtml(replacement)
}
