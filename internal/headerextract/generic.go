package headerextract

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"feedreader/internal/imageservice"
)

// Minimum <img> dimensions accepted by the generic fallback when width/height
// attributes are present (spec.md §4.6 step 4); an image with no declared
// size cannot be filtered and is accepted as-is.
const (
	bodyMinWidth, bodyMinHeight     = 100, 50
	headerMinWidth, headerMinHeight = 200, 200
)

// genericImageStrategy fetches the article page as HTML and picks an
// og:image, then twitter:image, then the first sufficiently large <img>.
type genericImageStrategy struct {
	fetcher ContentFetcher
}

func (s *genericImageStrategy) CanHandle(url string) bool {
	return !redditBareVideoPattern.MatchString(url)
}

func (s *genericImageStrategy) Create(ctx context.Context, pageURL string, forHeader bool) (string, error) {
	doc, err := s.fetcher.GetHTML(ctx, pageURL)
	if err != nil {
		return "", wrapStrategyErr("generic image page fetch", err)
	}

	imageURL := pickImageURL(doc, forHeader)
	if imageURL == "" {
		return "", fmt.Errorf("headerextract: generic image strategy: no candidate image on %s", pageURL)
	}
	resolved, err := resolveURL(pageURL, imageURL)
	if err != nil {
		return "", fmt.Errorf("headerextract: generic image strategy: resolve %q: %w", imageURL, err)
	}

	data, contentType, err := s.fetcher.Get(ctx, resolved)
	if err != nil {
		return "", wrapStrategyErr("generic image fetch", err)
	}
	result, err := imageservice.Process(data, contentType, forHeader)
	if err != nil {
		return "", fmt.Errorf("headerextract: generic image strategy: process: %w", err)
	}
	return fmt.Sprintf(`<img src="%s" alt="">`, result.DataURI), nil
}

// pickImageURL implements the og:image / twitter:image / first-large-<img>
// fallback chain.
func pickImageURL(doc *goquery.Document, forHeader bool) string {
	if content, ok := metaContent(doc, "meta[property='og:image']"); ok && content != "" {
		return content
	}
	if content, ok := metaContent(doc, "meta[name='twitter:image']"); ok && content != "" {
		return content
	}

	minW, minH := bodyMinWidth, bodyMinHeight
	if forHeader {
		minW, minH = headerMinWidth, headerMinHeight
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return true
		}
		if imgMeetsThreshold(s, minW, minH) {
			found = src
			return false
		}
		return true
	})
	return found
}

// imgMeetsThreshold accepts an <img> when it has no declared dimensions
// (cannot be filtered) or when both declared dimensions meet the threshold.
func imgMeetsThreshold(s *goquery.Selection, minW, minH int) bool {
	widthAttr, hasWidth := s.Attr("width")
	heightAttr, hasHeight := s.Attr("height")
	if !hasWidth || !hasHeight {
		return true
	}
	w, errW := strconv.Atoi(widthAttr)
	h, errH := strconv.Atoi(heightAttr)
	if errW != nil || errH != nil {
		return true
	}
	return w >= minW && h >= minH
}

func metaContent(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Attr("content")
}

func resolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
