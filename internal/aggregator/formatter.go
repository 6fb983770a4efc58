package aggregator

import (
	"html"
	"strings"
	"time"
)

// Format renders the standard article body shape every adapter converges
// on (spec.md §4.7): an optional header image/embed and title, an optional
// author/date metadata line, the body content, and a source-link footer.
// Specialized adapters (Heise) inject extra sections between body and
// footer by post-processing the returned string or building bodyHTML with
// that section already appended.
func Format(title, sourceURL, author string, date time.Time, headerHTML, bodyHTML string) string {
	return FormatWithExtra(title, sourceURL, author, date, headerHTML, bodyHTML, "")
}

// FormatWithExtra is Format plus an extraHTML section (e.g. Heise's
// JSON-LD-derived comments block) inserted between the body and the
// footer.
func FormatWithExtra(title, sourceURL, author string, date time.Time, headerHTML, bodyHTML, extraHTML string) string {
	var b strings.Builder

	b.WriteString("<header>\n")
	if headerHTML != "" {
		b.WriteString(headerHTML)
		b.WriteByte('\n')
	}
	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h1>\n")

	if author != "" || !date.IsZero() {
		b.WriteString(`<p class="metadata">`)
		if author != "" {
			b.WriteString(html.EscapeString(author))
		}
		if author != "" && !date.IsZero() {
			b.WriteString(" | ")
		}
		if !date.IsZero() {
			b.WriteString(`<time datetime="`)
			b.WriteString(date.UTC().Format(time.RFC3339))
			b.WriteString(`">`)
			b.WriteString(date.UTC().Format("2006-01-02 15:04"))
			b.WriteString("</time>")
		}
		b.WriteString("</p>\n")
	}
	b.WriteString("</header>\n")

	b.WriteString(`<section class="article-content">`)
	b.WriteString(bodyHTML)
	b.WriteString("</section>\n")

	if extraHTML != "" {
		b.WriteString(extraHTML)
		b.WriteByte('\n')
	}

	b.WriteString("<footer><p>Source: <a href=\"")
	b.WriteString(html.EscapeString(sourceURL))
	b.WriteString("\">")
	b.WriteString(html.EscapeString(sourceURL))
	b.WriteString("</a></p></footer>\n")

	return b.String()
}
