// Package htmlutil provides pure-function operations over a parsed HTML
// document used by article body processing (spec.md §4.4): comment
// stripping, selector-based pruning, attribute sanitization, and the
// responsive-image-variant matching that backs header/footer image removal.
// Every function mutates and returns the same *goquery.Document it was
// given, the same composition style as the teacher's webflow/nextjs
// scrapers.
package htmlutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultDataAttributeWhitelist is the set of data-* attributes
// CleanDataAttributes keeps by default (spec.md §4.4).
var DefaultDataAttributeWhitelist = []string{"data-src", "data-srcset"}

// CleanHTML drops HTML comment nodes and re-serializes the document,
// returning the cleaned HTML string for the given selection (or the whole
// document body if sel is nil).
func CleanHTML(doc *goquery.Document) (string, error) {
	removeComments(doc.Selection)
	return doc.Html()
}

func removeComments(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if node := s.Get(0); node != nil && node.Type == html.CommentNode {
			s.Remove()
			return
		}
		removeComments(s)
	})
}

// RemoveSelectors decomposes (removes from the tree) every element matching
// any of selectors.
func RemoveSelectors(doc *goquery.Document, selectors []string) {
	for _, selector := range selectors {
		doc.Find(selector).Remove()
	}
}

// RemoveEmptyElements removes any element among tags that has no trimmed
// text content and no descendant <img>.
func RemoveEmptyElements(doc *goquery.Document, tags []string) {
	for _, tag := range tags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if strings.TrimSpace(s.Text()) != "" {
				return
			}
			if s.Find("img").Length() > 0 {
				return
			}
			s.Remove()
		})
	}
}

var dataAttrPattern = regexp.MustCompile(`^data-`)

// CleanDataAttributes drops every data-* attribute except those in keep.
// A nil keep falls back to DefaultDataAttributeWhitelist.
func CleanDataAttributes(doc *goquery.Document, keep []string) {
	if keep == nil {
		keep = DefaultDataAttributeWhitelist
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		keepSet[k] = struct{}{}
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil {
			return
		}
		var toRemove []string
		for _, attr := range node.Attr {
			if dataAttrPattern.MatchString(attr.Key) {
				if _, ok := keepSet[attr.Key]; !ok {
					toRemove = append(toRemove, attr.Key)
				}
			}
		}
		for _, key := range toRemove {
			s.RemoveAttr(key)
		}
	})
}

// SanitizeClassNames moves every element's class attribute to
// data-sanitized-class, neutralizing site stylesheets while preserving the
// original value for later inspection.
func SanitizeClassNames(doc *goquery.Document) {
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		s.RemoveAttr("class")
		s.SetAttr("data-sanitized-class", class)
	})
}

// dangerousTags are removed outright by SanitizeHTMLAttributes since no
// attribute rename makes them safe to keep.
var dangerousTags = []string{"script", "object", "embed", "style", "iframe"}

var sanitizedAttrNames = map[string]struct{}{
	"class": {}, "style": {}, "id": {},
}

// SanitizeHTMLAttributes removes script/object/embed/style/iframe elements
// wholesale, and renames class/style/id and any non-whitelisted data-*
// attribute to a data-sanitized-* counterpart (spec.md §4.4). A second pass
// (RemoveSanitizedAttributes) strips those renamed attributes entirely once
// they are no longer needed, matching Merkur's two-pass cleanup.
func SanitizeHTMLAttributes(doc *goquery.Document) {
	for _, tag := range dangerousTags {
		doc.Find(tag).Remove()
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil {
			return
		}
		var renames []html.Attribute
		for _, attr := range node.Attr {
			_, sanitized := sanitizedAttrNames[attr.Key]
			isWhitelistedData := false
			for _, w := range DefaultDataAttributeWhitelist {
				if attr.Key == w {
					isWhitelistedData = true
					break
				}
			}
			isData := dataAttrPattern.MatchString(attr.Key)
			if sanitized || (isData && !isWhitelistedData) {
				renames = append(renames, attr)
			}
		}
		for _, attr := range renames {
			s.RemoveAttr(attr.Key)
			s.SetAttr("data-sanitized-"+strings.TrimPrefix(attr.Key, "data-"), attr.Val)
		}
	})
}

var sanitizedPrefix = regexp.MustCompile(`^data-sanitized-`)

// RemoveSanitizedAttributes strips every attribute renamed by
// SanitizeHTMLAttributes, matching Merkur's second cleanup pass.
func RemoveSanitizedAttributes(doc *goquery.Document) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil {
			return
		}
		var toRemove []string
		for _, attr := range node.Attr {
			if sanitizedPrefix.MatchString(attr.Key) {
				toRemove = append(toRemove, attr.Key)
			}
		}
		for _, key := range toRemove {
			s.RemoveAttr(key)
		}
	})
}
