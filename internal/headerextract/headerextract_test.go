package headerextract_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedreader/internal/domain/entity"
	"feedreader/internal/headerextract"
)

type fakeFetcher struct {
	htmlByURL map[string]string
	imageData map[string][]byte
	imageType map[string]string
	err       map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		htmlByURL: map[string]string{},
		imageData: map[string][]byte{},
		imageType: map[string]string{},
		err:       map[string]error{},
	}
}

func (f *fakeFetcher) Get(_ context.Context, url string) ([]byte, string, error) {
	if err, ok := f.err[url]; ok {
		return nil, "", err
	}
	if data, ok := f.imageData[url]; ok {
		return data, f.imageType[url], nil
	}
	return nil, "", errors.New("fakeFetcher: no bytes stubbed for " + url)
}

func (f *fakeFetcher) GetHTML(_ context.Context, url string) (*goquery.Document, error) {
	if err, ok := f.err[url]; ok {
		return nil, err
	}
	html, ok := f.htmlByURL[url]
	if !ok {
		return nil, errors.New("fakeFetcher: no html stubbed for " + url)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type fakeReddit struct {
	icons map[string]string
	err   error
}

func (f *fakeReddit) SubredditIconURL(_ context.Context, subreddit string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.icons[subreddit], nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: byte(x), G: byte(y), B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtract_RedditEmbed(t *testing.T) {
	fetcher := newFakeFetcher()
	ex := headerextract.New(headerextract.DefaultConfig(), fetcher, nil)

	html, err := ex.Extract(context.Background(), "https://vxreddit.com/r/golang/comments/abc123/title", true)
	require.NoError(t, err)
	assert.Contains(t, html, "<iframe")
	assert.Contains(t, html, "vxreddit.com")
}

func TestExtract_RedditPost_FetchesIcon(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.imageData["https://styles.redditmedia.com/icon.png"] = pngBytes(t, 64, 64)
	fetcher.imageType["https://styles.redditmedia.com/icon.png"] = "image/png"
	reddit := &fakeReddit{icons: map[string]string{"golang": "https://styles.redditmedia.com/icon.png"}}

	ex := headerextract.New(headerextract.DefaultConfig(), fetcher, reddit)
	html, err := ex.Extract(context.Background(), "https://www.reddit.com/r/golang/comments/abc123/title/", true)
	require.NoError(t, err)
	assert.Contains(t, html, "<img")
	assert.Contains(t, html, "data:image/png;base64,")
}

func TestExtract_YouTube_UsesProxyNotDirectEmbed(t *testing.T) {
	fetcher := newFakeFetcher()
	ex := headerextract.New(headerextract.DefaultConfig(), fetcher, nil)

	html, err := ex.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true)
	require.NoError(t, err)
	assert.Contains(t, html, "/api/youtube-proxy?v=dQw4w9WgXcQ")
	assert.NotContains(t, html, "youtube.com/embed")
}

func TestExtract_GenericImage_PrefersOGImage(t *testing.T) {
	fetcher := newFakeFetcher()
	pageURL := "https://news.example.com/article"
	fetcher.htmlByURL[pageURL] = `<html><head><meta property="og:image" content="/img/hero.png"></head><body></body></html>`
	fetcher.imageData["https://news.example.com/img/hero.png"] = pngBytes(t, 300, 300)
	fetcher.imageType["https://news.example.com/img/hero.png"] = "image/png"

	ex := headerextract.New(headerextract.DefaultConfig(), fetcher, nil)
	html, err := ex.Extract(context.Background(), pageURL, true)
	require.NoError(t, err)
	assert.Contains(t, html, "<img")
}

func TestExtract_BareRedditVideo_NoGenericFallback(t *testing.T) {
	fetcher := newFakeFetcher()
	ex := headerextract.New(headerextract.DefaultConfig(), fetcher, nil)

	html, err := ex.Extract(context.Background(), "https://v.redd.it/abc123xyz", true)
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestExtract_4xxPropagatesAsSkip(t *testing.T) {
	fetcher := newFakeFetcher()
	pageURL := "https://news.example.com/gone"
	fetcher.err[pageURL] = entity.NewArticleSkipError(pageURL, 404)

	ex := headerextract.New(headerextract.DefaultConfig(), fetcher, nil)
	_, err := ex.Extract(context.Background(), pageURL, true)
	require.Error(t, err)
	assert.True(t, entity.IsArticleSkip(err))
}

func TestExtractYouTubeID_AllURLForms(t *testing.T) {
	cases := []string{
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
	}
	for _, url := range cases {
		id, ok := headerextract.ExtractYouTubeID(url)
		assert.True(t, ok, url)
		assert.Equal(t, "dQw4w9WgXcQ", id, url)
	}
}

func TestClassifyMeinMMOEmbed(t *testing.T) {
	assert.Equal(t, headerextract.MeinMMOEmbedYouTube, headerextract.ClassifyMeinMMOEmbed("figure embed-youtube responsive"))
	assert.Equal(t, headerextract.MeinMMOEmbedTwitter, headerextract.ClassifyMeinMMOEmbed("embed-twitter"))
	assert.Equal(t, headerextract.MeinMMOEmbedReddit, headerextract.ClassifyMeinMMOEmbed("reddit-embed"))
	assert.Equal(t, headerextract.MeinMMOEmbedUnknown, headerextract.ClassifyMeinMMOEmbed("figure plain"))
}

func TestRewriteYouTubeIframes(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>`))
	require.NoError(t, err)

	headerextract.RewriteYouTubeIframes(doc, "/api/youtube-proxy")
	html, _ := doc.Find("body").Html()
	assert.Contains(t, html, "/api/youtube-proxy?v=dQw4w9WgXcQ")
	assert.NotContains(t, html, "youtube.com/embed")
}
