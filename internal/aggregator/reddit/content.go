package reddit

import (
	"fmt"
	"strings"

	"feedreader/internal/redditmd"
)

// buildPostContent renders a Reddit post into the standard article body:
// selftext, gallery images, link media, then a comments section, grounded
// on content.py build_post_content.
func buildPostContent(post *Post, comments []Comment, commentErr error, commentLimit int, subreddit string, isCrossPost bool) string {
	var parts []string

	if post.Selftext != "" {
		parts = append(parts, "<div>"+redditmd.Render(post.Selftext)+"</div>")
	}

	parts = append(parts, galleryMediaParts(post)...)
	parts = append(parts, linkMediaParts(post, isCrossPost)...)
	parts = append(parts, commentsSection(post, comments, commentErr, commentLimit))

	return strings.Join(parts, "")
}

func galleryMediaParts(post *Post) []string {
	if !post.IsGallery || post.MediaMetadata == nil || post.GalleryData == nil {
		return nil
	}
	var out []string
	for _, item := range post.GalleryData.Items {
		meta, ok := post.MediaMetadata[item.MediaID]
		if !ok {
			continue
		}
		var mediaURL string
		isAnimated := meta.E == "AnimatedImage"
		switch {
		case isAnimated:
			mediaURL = firstNonEmpty(meta.S["gif"], meta.S["mp4"])
		case meta.E == "Image":
			mediaURL = meta.S["u"]
		}
		if mediaURL == "" {
			continue
		}
		fixed := fixMediaURL(decodeEntities(mediaURL))
		alt := "Gallery image"
		if item.Caption != "" {
			alt = escapeHTML(item.Caption)
		} else if isAnimated {
			alt = "Animated GIF"
		}
		if item.Caption != "" {
			out = append(out, fmt.Sprintf(`<figure><img src="%s" alt="%s"><figcaption>%s</figcaption></figure>`, fixed, alt, alt))
		} else {
			out = append(out, fmt.Sprintf(`<p><img src="%s" alt="%s"></p>`, fixed, alt))
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// linkMediaParts dispatches post.URL to the matching media handler
// (gif/gifv, direct image, v.redd.it, YouTube, Twitter/X), falling back to
// a plain link, grounded on content.py _add_link_media/_process_link_media.
func linkMediaParts(post *Post, isCrossPost bool) []string {
	if post.URL == "" || post.IsGallery {
		return nil
	}
	url := decodeEntities(post.URL)
	lower := strings.ToLower(url)

	switch {
	case strings.HasSuffix(lower, ".gif") || strings.HasSuffix(lower, ".gifv"):
		gifURL := url
		if strings.HasSuffix(lower, ".gifv") {
			gifURL = url[:len(url)-1]
		}
		return []string{fmt.Sprintf(`<p><img src="%s" alt="Animated GIF"></p>`, fixMediaURL(gifURL))}

	case strings.Contains(lower, ".jpg") || strings.Contains(lower, ".jpeg") ||
		strings.Contains(lower, ".png") || strings.Contains(lower, ".webp") || strings.Contains(lower, "i.redd.it"):
		fixed := fixMediaURL(url)
		return []string{fmt.Sprintf(`<p><a href="%s" target="_blank" rel="noopener">%s</a></p>`, fixed, escapeHTML(fixed))}

	case strings.Contains(lower, "v.redd.it"):
		// v.redd.it video links are surfaced via the article header image
		// (see reddit.go's header extraction), not inline in the body.
		return nil

	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return []string{fmt.Sprintf(`<p><a href="%s" target="_blank" rel="noopener">&#9654; View Video on YouTube</a></p>`, url)}

	case strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com"):
		return []string{fmt.Sprintf(`<p><a href="%s" target="_blank" rel="noopener">View on X/Twitter</a></p>`, url)}
	}

	if !isCrossPost && !post.IsSelf {
		return []string{fmt.Sprintf(`<p><a href="%s" target="_blank" rel="noopener">%s</a></p>`, url, escapeHTML(url))}
	}
	return nil
}

// commentsSection renders the comments block. commentErr carries a 4xx
// *entity.ArticleSkipError to propagate (comments.py/content.py re-raise
// ArticleSkipError up to enrich_articles); any other error degrades to a
// placeholder rather than failing the whole article.
func commentsSection(post *Post, comments []Comment, commentErr error, commentLimit int) string {
	permalink := "https://reddit.com" + decodeEntities(post.Permalink)
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h3><a href="%s" target="_blank" rel="noopener">Comments</a></h3>`, permalink))

	switch {
	case commentLimit <= 0:
		b.WriteString("<p><em>Comments disabled.</em></p>")
	case commentErr != nil:
		b.WriteString("<p><em>Comments unavailable.</em></p>")
	case len(comments) == 0:
		b.WriteString("<p><em>No comments yet.</em></p>")
	default:
		for _, c := range comments {
			b.WriteString(formatCommentHTML(c))
		}
	}

	return "<section>" + b.String() + "</section>"
}

func formatCommentHTML(c Comment) string {
	author := c.Author
	if author == "" {
		author = "[deleted]"
	}
	body := redditmd.Render(c.Body)
	commentURL := "https://reddit.com" + c.Permalink
	return fmt.Sprintf(`
<blockquote>
<p><strong>%s</strong> | <a href="%s">source</a></p>
<div>%s</div>
</blockquote>
`, escapeHTML(author), commentURL, body)
}
