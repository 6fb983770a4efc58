package youtube

import (
	"fmt"
	"html"
	"strings"
)

// buildContentHTML renders the video description plus a comments block,
// grounded on aggregator.py _build_content_html.
func buildContentHTML(description string, comments []Comment) string {
	formatted := strings.ReplaceAll(description, "\n", "<br>")
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="youtube-description">%s</div>`, formatted)

	if len(comments) > 0 {
		b.WriteString(`<div class="youtube-comments"><h3>Comments</h3>`)
		for _, c := range comments {
			author := c.Author
			if author == "" {
				author = "Unknown"
			}
			fmt.Fprintf(&b, `<div class="youtube-comment" style="margin-bottom: 15px; border-bottom: 1px solid #eee; padding-bottom: 10px;">`+
				`<strong>%s</strong><br><div>%s</div></div>`, html.EscapeString(author), c.Text)
		}
		b.WriteString(`</div>`)
	}

	return b.String()
}
