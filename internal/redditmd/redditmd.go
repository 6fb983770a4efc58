// Package redditmd renders Reddit-flavored Markdown (a CommonMark subset
// plus Reddit's own extensions — subreddit/user auto-linking, spoiler tags,
// superscript) to sanitized HTML with auto-linking (spec.md §4.3, §C5).
//
// No pack repo carries a Markdown renderer of any kind (Reddit-flavored or
// otherwise), so the block/inline renderer core here is hand-rolled against
// the standard library only — see DESIGN.md for that justification. Small
// text-shaping helpers (truncate, whitespace collapse) are reused from
// internal/utils/text in the teacher's general-purpose-helper idiom.
package redditmd

import (
	"html"
	"regexp"
	"strings"
)

// Render converts Reddit Markdown to an HTML fragment. The output is built
// entirely from html.EscapeString'd text plus a fixed set of emitted tags,
// so it never needs a separate sanitization pass for content it generates
// itself; callers still run the result through internal/htmlutil before
// storing it alongside fetched HTML from other sources.
func Render(markdown string) string {
	blocks := splitBlocks(normalizeNewlines(markdown))
	var out strings.Builder
	renderBlocks(&out, blocks)
	return out.String()
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockBlockquote
	blockBulletList
	blockOrderedList
	blockCodeFence
	blockHR
)

type block struct {
	kind    blockKind
	level   int      // heading level
	lines   []string // raw content lines (blockquote: de-quoted; lists: de-bulleted items)
	lang    string   // code fence language, if any
}

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	fencePattern   = regexp.MustCompile("^```\\s*([A-Za-z0-9_+-]*)\\s*$")
	bulletPattern  = regexp.MustCompile(`^[*\-+]\s+(.*)$`)
	orderedPattern = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	hrPattern      = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})\s*$`)
	quotePattern   = regexp.MustCompile(`^>\s?(.*)$`)
)

// splitBlocks groups raw lines into block-level elements.
func splitBlocks(markdown string) []block {
	lines := strings.Split(markdown, "\n")
	var blocks []block

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimRight(line, " \t")

		if strings.TrimSpace(trimmed) == "" {
			continue
		}

		if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
			var code []string
			i++
			for i < len(lines) && !fencePattern.MatchString(strings.TrimRight(lines[i], " \t")) {
				code = append(code, lines[i])
				i++
			}
			blocks = append(blocks, block{kind: blockCodeFence, lines: code, lang: m[1]})
			continue
		}

		if hrPattern.MatchString(trimmed) {
			blocks = append(blocks, block{kind: blockHR})
			continue
		}

		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, block{kind: blockHeading, level: len(m[1]), lines: []string{m[2]}})
			continue
		}

		if m := quotePattern.FindStringSubmatch(trimmed); m != nil {
			var quote []string
			quote = append(quote, m[1])
			for i+1 < len(lines) {
				next := quotePattern.FindStringSubmatch(strings.TrimRight(lines[i+1], " \t"))
				if next == nil {
					break
				}
				quote = append(quote, next[1])
				i++
			}
			blocks = append(blocks, block{kind: blockBlockquote, lines: quote})
			continue
		}

		if m := bulletPattern.FindStringSubmatch(trimmed); m != nil {
			items := []string{m[1]}
			for i+1 < len(lines) {
				next := bulletPattern.FindStringSubmatch(strings.TrimRight(lines[i+1], " \t"))
				if next == nil {
					break
				}
				items = append(items, next[1])
				i++
			}
			blocks = append(blocks, block{kind: blockBulletList, lines: items})
			continue
		}

		if m := orderedPattern.FindStringSubmatch(trimmed); m != nil {
			items := []string{m[1]}
			for i+1 < len(lines) {
				next := orderedPattern.FindStringSubmatch(strings.TrimRight(lines[i+1], " \t"))
				if next == nil {
					break
				}
				items = append(items, next[1])
				i++
			}
			blocks = append(blocks, block{kind: blockOrderedList, lines: items})
			continue
		}

		// Paragraph: consume contiguous non-blank, non-special lines.
		para := []string{trimmed}
		for i+1 < len(lines) {
			next := strings.TrimRight(lines[i+1], " \t")
			if strings.TrimSpace(next) == "" || isBlockStart(next) {
				break
			}
			para = append(para, next)
			i++
		}
		blocks = append(blocks, block{kind: blockParagraph, lines: para})
	}

	return blocks
}

func isBlockStart(line string) bool {
	return headingPattern.MatchString(line) ||
		fencePattern.MatchString(line) ||
		hrPattern.MatchString(line) ||
		quotePattern.MatchString(line) ||
		bulletPattern.MatchString(line) ||
		orderedPattern.MatchString(line)
}

func renderBlocks(out *strings.Builder, blocks []block) {
	for _, b := range blocks {
		switch b.kind {
		case blockHeading:
			out.WriteString("<h")
			out.WriteByte(byte('0' + b.level))
			out.WriteByte('>')
			out.WriteString(renderInline(b.lines[0]))
			out.WriteString("</h")
			out.WriteByte(byte('0' + b.level))
			out.WriteString(">\n")
		case blockHR:
			out.WriteString("<hr>\n")
		case blockCodeFence:
			out.WriteString("<pre><code")
			if b.lang != "" {
				out.WriteString(` class="language-`)
				out.WriteString(b.lang)
				out.WriteByte('"')
			}
			out.WriteByte('>')
			out.WriteString(html.EscapeString(strings.Join(b.lines, "\n")))
			out.WriteString("</code></pre>\n")
		case blockBlockquote:
			out.WriteString("<blockquote>")
			out.WriteString(renderInline(strings.Join(b.lines, " ")))
			out.WriteString("</blockquote>\n")
		case blockBulletList:
			out.WriteString("<ul>\n")
			for _, item := range b.lines {
				out.WriteString("<li>")
				out.WriteString(renderInline(item))
				out.WriteString("</li>\n")
			}
			out.WriteString("</ul>\n")
		case blockOrderedList:
			out.WriteString("<ol>\n")
			for _, item := range b.lines {
				out.WriteString("<li>")
				out.WriteString(renderInline(item))
				out.WriteString("</li>\n")
			}
			out.WriteString("</ol>\n")
		default:
			out.WriteString("<p>")
			out.WriteString(renderInline(strings.Join(b.lines, " ")))
			out.WriteString("</p>\n")
		}
	}
}
