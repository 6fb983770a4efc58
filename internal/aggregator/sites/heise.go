package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedreader/internal/aggregator/fullwebsite"
)

// CommentFetcher fetches and parses a forum page the same way an article
// page is fetched, used by NewHeise to pull the discussion thread a
// separate request away from the article itself.
type CommentFetcher = fullwebsite.PageFetcher

var commentElementSelectors = []string{
	"li.posting_element", `[id^="posting_"]`, ".posting", ".a-comment",
}

// composeHeiseComments resolves the article's forum discussion URL from
// JSON-LD (falling back to a "Kommentare lesen"-style link), fetches that
// page, and renders up to maxComments entries as a <section> appended
// before the footer, grounded on HeiseAggregator.extract_comments.
func composeHeiseComments(ctx context.Context, doc *goquery.Document, pageURL string, fetcher CommentFetcher, maxComments int) (string, error) {
	if fetcher == nil {
		return "", nil
	}

	forumURL := findHeiseForumURL(doc, pageURL)
	if forumURL == "" {
		return "", nil
	}

	forumDoc, err := fetcher.GetHTML(ctx, forumURL)
	if err != nil {
		return "", fmt.Errorf("heise: fetch forum page: %w", err)
	}

	elements := findHeiseCommentElements(forumDoc)
	if elements.Length() == 0 {
		return "", nil
	}

	var parts []string
	elements.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxComments {
			return false
		}
		if html := renderHeiseComment(s, i, forumURL, pageURL); html != "" {
			parts = append(parts, html)
		}
		return true
	})
	if len(parts) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(`<section><h3><a href="`)
	b.WriteString(forumURL)
	b.WriteString(`">Comments</a></h3>`)
	for _, p := range parts {
		b.WriteString(p)
	}
	b.WriteString("</section>")
	return b.String(), nil
}

func findHeiseForumURL(doc *goquery.Document, pageURL string) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if u, ok := findDiscussionURL(data); ok {
			found = resolveRelative(pageURL, u)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	if href, ok := doc.Find(`a[href*="/forum/"][href*="comment"], footer a[href*="/forum/"]`).First().Attr("href"); ok && href != "" {
		return resolveRelative(pageURL, href)
	}
	return ""
}

func findDiscussionURL(data any) (string, bool) {
	switch v := data.(type) {
	case map[string]any:
		if u, ok := v["discussionUrl"]; ok {
			if s, ok := u.(string); ok {
				return s, true
			}
		}
	case []any:
		for _, item := range v {
			if u, ok := findDiscussionURL(item); ok {
				return u, true
			}
		}
	}
	return "", false
}

func resolveRelative(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func findHeiseCommentElements(doc *goquery.Document) *goquery.Selection {
	for _, selector := range commentElementSelectors {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			return sel
		}
	}
	return doc.Find("nonexistent-marker")
}

var heiseCommentAuthorSelectors = []string{
	`a[href*="/forum/heise-online/Meinungen"]`, ".pseudonym", ".username", "strong",
}
var heiseCommentContentSelectors = []string{".text", ".posting-content", ".comment-body", "p"}

func renderHeiseComment(s *goquery.Selection, index int, forumURL, articleURL string) string {
	tag := goquery.NodeName(s)
	if tag == "li" {
		return renderHeiseListComment(s)
	}
	return renderHeiseFullComment(s, index, articleURL)
}

func renderHeiseListComment(s *goquery.Selection) string {
	author := "Unknown"
	if a := s.Find(".tree_thread_list--written_by_user, .pseudonym").First(); a.Length() > 0 {
		author = strings.TrimSpace(a.Text())
	}

	titleLink := s.Find("a.posting_subject").First()
	if titleLink.Length() == 0 {
		return ""
	}
	title := strings.TrimSpace(titleLink.Text())
	href, _ := titleLink.Attr("href")

	return fmt.Sprintf(`<blockquote><p><strong>%s</strong> | <a href="%s">source</a></p><div><p>%s</p></div></blockquote>`,
		author, href, title)
}

func renderHeiseFullComment(s *goquery.Selection, index int, articleURL string) string {
	author := "Unknown"
	for _, sel := range heiseCommentAuthorSelectors {
		if el := s.Find(sel).First(); el.Length() > 0 {
			text := strings.TrimSpace(el.Text())
			if text != "" && len(text) < 50 {
				author = text
				break
			}
		}
	}

	var content string
	for _, sel := range heiseCommentContentSelectors {
		if el := s.Find(sel).First(); el.Length() > 0 {
			if h, err := el.Html(); err == nil {
				content = h
				break
			}
		}
	}
	if content == "" {
		return ""
	}

	id, exists := s.Attr("id")
	if !exists || id == "" {
		id = fmt.Sprintf("comment-%d", index)
	}
	commentURL := fmt.Sprintf("%s#%s", articleURL, id)

	return fmt.Sprintf(`<blockquote><p><strong>%s</strong> | <a href="%s">source</a></p><div>%s</div></blockquote>`,
		author, commentURL, content)
}
