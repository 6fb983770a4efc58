package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedreader/internal/aggregator/fullwebsite"
)

// newContentWrapper builds a fresh, document-detached <div> selection to
// accumulate extracted nodes into, mirroring BeautifulSoup's
// soup.new_tag("div") in the Python original.
func newContentWrapper(class string) *goquery.Selection {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(`<div data-sanitized-class="` + class + `"></div>`))
	return doc.Find("div").First()
}

// extractTagesschauContent rebuilds the article body from only the
// "textabsatz" paragraphs and "trenner" heading markers Tagesschau's CMS
// emits, skipping anything nested under a teaser/bigfive/accordion/related
// container, grounded on
// original_source/core/aggregators/tagesschau/content_extraction.py.
func extractTagesschauContent(_ context.Context, _ fullwebsite.PageFetcher, doc *goquery.Document, _ string) (*goquery.Selection, error) {
	container := doc.Find("body").First()
	built := newContentWrapper("article-content")

	container.Find("p, h2").Each(func(_ int, s *goquery.Selection) {
		if tagesschauInSkippedContainer(s) {
			return
		}
		tag := goquery.NodeName(s)
		class, _ := s.Attr("class")

		switch {
		case tag == "p" && strings.Contains(class, "textabsatz"):
			clone := s.Clone()
			clone.RemoveAttr("class")
			built.AppendSelection(clone)
		case tag == "h2" && strings.Contains(class, "trenner"):
			text := strings.TrimSpace(s.Text())
			built.AppendHtml("<h2>" + html.EscapeString(text) + "</h2>")
		}
	})

	if mediaHeader := extractTagesschauMediaHeader(doc); mediaHeader != "" {
		built.PrependHtml(mediaHeader)
	}

	return built, nil
}

func tagesschauInSkippedContainer(s *goquery.Selection) bool {
	skip := false
	s.ParentsFilter("*").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		class, _ := p.Attr("class")
		for _, term := range []string{"teaser", "bigfive", "accordion", "related"} {
			if strings.Contains(class, term) {
				skip = true
				return false
			}
		}
		return true
	})
	return skip
}

type tagesschauStream struct {
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	IsAudioOnly  bool   `json:"isAudioOnly"`
	Media        []struct {
		URL      string `json:"url"`
		MimeType string `json:"mimeType"`
	} `json:"media"`
}

type tagesschauPlayerData struct {
	MC struct {
		Streams []tagesschauStream `json:"streams"`
		Poster  string             `json:"poster"`
		Image   string             `json:"image"`
	} `json:"mc"`
}

// extractTagesschauMediaHeader mirrors media_processor.py's best-effort
// video/audio player extraction from a data-v-type="MediaPlayer" div's
// entity-encoded JSON payload. Any parse failure simply yields no header,
// matching the Python original's broad except-and-log behavior.
func extractTagesschauMediaHeader(doc *goquery.Document) string {
	var result string
	doc.Find(`div[data-v-type="MediaPlayer"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		dataV, ok := s.Attr("data-v")
		if !ok || dataV == "" {
			return true
		}
		decoded := html.UnescapeString(dataV)
		var player tagesschauPlayerData
		if err := json.Unmarshal([]byte(decoded), &player); err != nil {
			return true
		}
		streams := player.MC.Streams
		if len(streams) == 0 {
			return true
		}
		audioOnly := true
		for _, st := range streams {
			if !st.IsAudioOnly {
				audioOnly = false
				break
			}
		}
		image := player.MC.Poster
		if image == "" {
			image = player.MC.Image
		}
		if h := buildTagesschauPlayerHTML(streams, audioOnly, image); h != "" {
			result = h
			return false
		}
		return true
	})
	return result
}

func buildTagesschauPlayerHTML(streams []tagesschauStream, audioOnly bool, image string) string {
	wantType := "video"
	if audioOnly {
		wantType = "audio"
	}
	for _, stream := range streams {
		for _, media := range stream.Media {
			if !strings.Contains(strings.ToLower(media.MimeType), wantType) {
				continue
			}
			if audioOnly {
				imgPart := ""
				if image != "" {
					imgPart = fmt.Sprintf(`<div class="media-image"><img src="%s" alt="Article image"></div>`, image)
				}
				return fmt.Sprintf(`<header class="media-header">%s<div class="media-player"><audio controls preload="auto"><source src="%s" type="%s"></audio></div></header>`,
					imgPart, media.URL, media.MimeType)
			}
			poster := ""
			if image != "" {
				poster = fmt.Sprintf(` poster="%s"`, image)
			}
			return fmt.Sprintf(`<header class="media-header"><div class="media-player"><video controls preload="auto"%s><source src="%s" type="%s"></video></div></header>`,
				poster, media.URL, media.MimeType)
		}
	}
	return ""
}
