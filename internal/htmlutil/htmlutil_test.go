package htmlutil_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedreader/internal/htmlutil"
)

func mustDoc(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func TestCleanHTML_RemovesComments(t *testing.T) {
	doc := mustDoc(t, `<div><!-- hidden -->visible</div>`)
	out, err := htmlutil.CleanHTML(doc)
	require.NoError(t, err)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestRemoveSelectors(t *testing.T) {
	doc := mustDoc(t, `<div><p class="ad">buy now</p><p>keep me</p></div>`)
	htmlutil.RemoveSelectors(doc, []string{"p.ad"})
	text := doc.Text()
	assert.NotContains(t, text, "buy now")
	assert.Contains(t, text, "keep me")
}

func TestRemoveEmptyElements(t *testing.T) {
	doc := mustDoc(t, `<div><p></p><p>  </p><p>text</p><figure><img src="x.jpg"></figure></div>`)
	htmlutil.RemoveEmptyElements(doc, []string{"p", "figure"})
	assert.Equal(t, 1, doc.Find("p").Length())
	assert.Equal(t, 1, doc.Find("figure").Length(), "figure with img must survive")
}

func TestCleanDataAttributes_KeepsWhitelist(t *testing.T) {
	doc := mustDoc(t, `<img data-src="a.jpg" data-srcset="a.jpg 1x" data-foo="bar">`)
	htmlutil.CleanDataAttributes(doc, nil)

	img := doc.Find("img").First()
	_, hasSrc := img.Attr("data-src")
	_, hasSrcset := img.Attr("data-srcset")
	_, hasFoo := img.Attr("data-foo")
	assert.True(t, hasSrc)
	assert.True(t, hasSrcset)
	assert.False(t, hasFoo)
}

func TestSanitizeClassNames(t *testing.T) {
	doc := mustDoc(t, `<div class="article-body">text</div>`)
	htmlutil.SanitizeClassNames(doc)

	div := doc.Find("div").First()
	_, hasClass := div.Attr("class")
	sanitized, _ := div.Attr("data-sanitized-class")
	assert.False(t, hasClass)
	assert.Equal(t, "article-body", sanitized)
}

func TestSanitizeHTMLAttributes_RemovesDangerousTags(t *testing.T) {
	doc := mustDoc(t, `<div><script>alert(1)</script><iframe src="x"></iframe><p id="x" style="color:red">ok</p></div>`)
	htmlutil.SanitizeHTMLAttributes(doc)

	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, 0, doc.Find("iframe").Length())

	p := doc.Find("p").First()
	_, hasID := p.Attr("id")
	sanitizedID, _ := p.Attr("data-sanitized-id")
	assert.False(t, hasID)
	assert.Equal(t, "x", sanitizedID)
}

func TestRemoveSanitizedAttributes(t *testing.T) {
	doc := mustDoc(t, `<p data-sanitized-id="x" data-sanitized-class="y">ok</p>`)
	htmlutil.RemoveSanitizedAttributes(doc)

	p := doc.Find("p").First()
	_, hasID := p.Attr("data-sanitized-id")
	_, hasClass := p.Attr("data-sanitized-class")
	assert.False(t, hasID)
	assert.False(t, hasClass)
}

func TestRemoveImageByURL_ExactMatch(t *testing.T) {
	doc := mustDoc(t, `<div><img src="https://example.com/a.jpg"><img src="https://example.com/b.jpg"></div>`)
	removed := htmlutil.RemoveImageByURL(doc, "https://example.com/a.jpg")
	assert.True(t, removed)
	assert.Equal(t, 1, doc.Find("img").Length())
}

func TestRemoveImageByURL_ResponsiveVariant(t *testing.T) {
	doc := mustDoc(t, `<img src="https://cdn.example.com/banner-300x200.jpg">`)
	removed := htmlutil.RemoveImageByURL(doc, "https://other.example.com/banner.jpg")
	assert.True(t, removed)
	assert.Equal(t, 0, doc.Find("img").Length())
}

func TestRemoveImageByURL_GenericNameNotMatched(t *testing.T) {
	doc := mustDoc(t, `<img src="https://cdn.example.com/image.jpg">`)
	removed := htmlutil.RemoveImageByURL(doc, "https://other.example.com/image.jpg")
	assert.False(t, removed)
	assert.Equal(t, 1, doc.Find("img").Length())
}

func TestRemoveImageByURL_GenericStemNotMatched(t *testing.T) {
	doc := mustDoc(t, `<img src="https://cdn.example.com/photo-300x200.jpg">`)
	removed := htmlutil.RemoveImageByURL(doc, "https://other.example.com/photo.jpg")
	assert.False(t, removed)
	assert.Equal(t, 1, doc.Find("img").Length())
}

func TestRemoveImageByURL_NoMatch(t *testing.T) {
	doc := mustDoc(t, `<img src="https://cdn.example.com/unrelated.jpg">`)
	removed := htmlutil.RemoveImageByURL(doc, "https://other.example.com/photo.jpg")
	assert.False(t, removed)
}
