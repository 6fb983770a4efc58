package redditmd

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// renderInline applies Reddit's inline syntax — code spans, links,
// autolinking, subreddit/user mentions, bold/italic/strikethrough,
// superscript, and spoiler tags — to a single escaped line of text.
//
// Constructs that themselves emit HTML (code spans, links, mentions,
// autolinks) are rendered first and swapped for opaque placeholders so the
// later bold/italic/strike regexes — which operate on the literal
// characters *, _, ~, ^ — can never reach back inside already-rendered
// markup and corrupt it. The placeholders are restored in a final pass.
func renderInline(raw string) string {
	escaped := html.EscapeString(raw)

	var placeholders []string
	store := func(htmlFragment string) string {
		placeholders = append(placeholders, htmlFragment)
		return placeholderToken(len(placeholders) - 1)
	}

	escaped = codeSpanPattern.ReplaceAllStringFunc(escaped, func(m string) string {
		sub := codeSpanPattern.FindStringSubmatch(m)
		return store("<code>" + sub[1] + "</code>")
	})

	escaped = linkPattern.ReplaceAllStringFunc(escaped, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		text, href := sub[1], sub[2]
		return store(fmt.Sprintf(`<a href="%s" rel="nofollow noopener">%s</a>`, href, text))
	})

	escaped = autolinkPattern.ReplaceAllStringFunc(escaped, func(m string) string {
		return store(fmt.Sprintf(`<a href="%s" rel="nofollow noopener">%s</a>`, m, m))
	})

	// Subreddit/user mentions run after autolinking and explicit links have
	// already been swapped for placeholders, so a "r/x" substring inside a
	// full reddit.com URL can no longer be matched twice. Matches are only
	// honored when not immediately preceded by a word character or slash,
	// so "favor/golang" does not get misread as a mention of r/golang.
	escaped = replaceAtWordBoundary(escaped, subredditPattern, func(matched string) string {
		path := strings.TrimPrefix(matched, "/")
		return store(fmt.Sprintf(`<a href="https://www.reddit.com/%s" rel="nofollow noopener">%s</a>`, path, matched))
	})
	escaped = replaceAtWordBoundary(escaped, userPattern, func(matched string) string {
		name := strings.TrimPrefix(strings.TrimPrefix(matched, "/"), "u/")
		return store(fmt.Sprintf(`<a href="https://www.reddit.com/user/%s" rel="nofollow noopener">%s</a>`, name, matched))
	})

	escaped = spoilerPattern.ReplaceAllString(escaped, `<span class="spoiler-text" title="spoiler">$1</span>`)
	escaped = boldDoubleStarPattern.ReplaceAllString(escaped, `<strong>$1</strong>`)
	escaped = boldDoubleUnderscorePattern.ReplaceAllString(escaped, `<strong>$1</strong>`)
	escaped = strikePattern.ReplaceAllString(escaped, `<del>$1</del>`)
	escaped = superscriptParenPattern.ReplaceAllString(escaped, `<sup>$1</sup>`)
	escaped = superscriptWordPattern.ReplaceAllString(escaped, `<sup>$1</sup>`)
	escaped = italicStarPattern.ReplaceAllString(escaped, `<em>$1</em>`)
	escaped = italicUnderscorePattern.ReplaceAllString(escaped, `$1<em>$2</em>$3`)

	return restorePlaceholders(escaped, placeholders)
}

var (
	codeSpanPattern             = regexp.MustCompile("`([^`]+)`")
	linkPattern                 = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	autolinkPattern             = regexp.MustCompile(`https?://[^\s<>\[\]()]+`)
	subredditPattern            = regexp.MustCompile(`/?r/[A-Za-z0-9_]{2,24}`)
	userPattern                 = regexp.MustCompile(`/?u/[A-Za-z0-9_-]{3,24}`)
	spoilerPattern              = regexp.MustCompile(`&gt;!(.+?)!&lt;`)
	boldDoubleStarPattern       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	boldDoubleUnderscorePattern = regexp.MustCompile(`__([^_\n]+)__`)
	strikePattern               = regexp.MustCompile(`~~([^~\n]+)~~`)
	superscriptParenPattern     = regexp.MustCompile(`\^\(([^)\n]+)\)`)
	superscriptWordPattern      = regexp.MustCompile(`\^(\S+)`)
	italicStarPattern           = regexp.MustCompile(`\*([^*\n]+)\*`)
	// Intraword underscores (e.g. "my_var_name") are not treated as
	// emphasis — only underscores with a non-word boundary on both sides.
	italicUnderscorePattern = regexp.MustCompile(`(^|[\s(])_([^_\n]+)_($|[\s).,!?;:])`)
)

// replaceAtWordBoundary behaves like pattern.ReplaceAllStringFunc except it
// leaves a match untouched when immediately preceded by a word character or
// a slash, since Go's RE2 engine has no lookbehind to express that as part
// of the pattern itself.
func replaceAtWordBoundary(s string, pattern *regexp.Regexp, wrap func(string) string) string {
	locs := pattern.FindAllStringIndex(s, -1)
	if locs == nil {
		return s
	}
	var out strings.Builder
	prev := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start < prev {
			continue // overlapped a previous replacement
		}
		if start > 0 {
			before := s[start-1]
			if before == '/' || isWordByte(before) {
				continue
			}
		}
		out.WriteString(s[prev:start])
		out.WriteString(wrap(s[start:end]))
		prev = end
	}
	out.WriteString(s[prev:])
	return out.String()
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func placeholderToken(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}

var placeholderTokenPattern = regexp.MustCompile("\x00(\\d+)\x00")

func restorePlaceholders(s string, placeholders []string) string {
	return placeholderTokenPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := placeholderTokenPattern.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(placeholders) {
			return m
		}
		return placeholders[idx]
	})
}

