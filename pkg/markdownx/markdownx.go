// Package markdownx strips markdown formatting from model output so that
// generated notes are stored as plain text. The transform is idempotent:
// applying it to already-clean text is a no-op modulo surrounding whitespace.
package markdownx

import (
	"regexp"
	"strings"
)

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	boldStars  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnder  = regexp.MustCompile(`__(.+?)__`)
	strike     = regexp.MustCompile(`~~(.+?)~~`)
	italStar   = regexp.MustCompile(`\*([^*\n]+)\*`)
	italUnder  = regexp.MustCompile(`_([^_\n]+)_`)
	inlineCode = regexp.MustCompile("`([^`\n]+)`")
	header     = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	bullet     = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered   = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// Strip removes markdown syntax from s, keeping the inner text. Fenced code
// blocks are removed entirely, bullet markers become a bullet glyph, and runs
// of blank lines collapse to one. If the transform fails for any reason the
// original input is returned unchanged.
func Strip(s string) (out string) {
	out = s
	defer func() {
		if r := recover(); r != nil {
			out = s
		}
	}()

	t := fencedCode.ReplaceAllString(s, "")
	t = boldStars.ReplaceAllString(t, "$1")
	t = boldUnder.ReplaceAllString(t, "$1")
	t = strike.ReplaceAllString(t, "$1")
	t = italStar.ReplaceAllString(t, "$1")
	t = italUnder.ReplaceAllString(t, "$1")
	t = inlineCode.ReplaceAllString(t, "$1")
	t = header.ReplaceAllString(t, "")
	t = bullet.ReplaceAllString(t, "• ")
	t = numbered.ReplaceAllString(t, "")
	t = blankRuns.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}
