package aggregator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"feedreader/internal/aggregator"
)

func TestFormat_OmitsMetadataWhenAuthorAndDateAbsent(t *testing.T) {
	out := aggregator.Format("Title", "https://example.com/a", "", time.Time{}, "", "<p>body</p>")
	assert.NotContains(t, out, "metadata")
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, `<section class="article-content"><p>body</p></section>`)
	assert.Contains(t, out, `Source: <a href="https://example.com/a">`)
}

func TestFormat_IncludesMetadataLine(t *testing.T) {
	date := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	out := aggregator.Format("Title", "https://example.com/a", "Jane", date, "<img>", "<p>body</p>")
	assert.Contains(t, out, `class="metadata"`)
	assert.Contains(t, out, "Jane")
	assert.Contains(t, out, "2026-07-29")
	assert.Contains(t, out, "<img>")
}

func TestFormat_EscapesTitle(t *testing.T) {
	out := aggregator.Format("<script>x</script>", "https://example.com", "", time.Time{}, "", "")
	assert.NotContains(t, out, "<script>x</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}
