// Package parser extracts frontmatter metadata and Markdown link mentions
// from note content.
package parser

import (
	"path"
	"strings"

	"github.com/ivkram/geokb/internal/models"
)

const fmDelim = "---"

// Result holds the output of parsing a Markdown note.
type Result struct {
	// Frontmatter is the key/value block at the top of the file, or nil
	// when the file has no recognizable frontmatter.
	Frontmatter map[string]string
	// Title is the frontmatter "title" value, or "" when absent.
	Title string
	// Body is the content after the frontmatter block (the whole content
	// when no frontmatter was recognized).
	Body string
	// Mentions are all Markdown links of the form [text](target.md) found
	// anywhere in the file, in source order, duplicates included.
	Mentions []models.Mention
}

// Parse extracts frontmatter and link mentions from raw note content.
// It never fails: malformed constructs are skipped, not reported.
func Parse(data []byte) *Result {
	content := string(data)
	fm, body := splitFrontmatter(content)

	return &Result{
		Frontmatter: fm,
		Title:       fm["title"],
		Body:        body,
		// Mentions are scanned over the full content, so links survive
		// even in files with an unterminated frontmatter block.
		Mentions: ScanMentions(content),
	}
}

// splitFrontmatter extracts the key/value block between the first and second
// "---" delimiters. A file has frontmatter only when it begins with the
// delimiter; without a closing delimiter the whole content is body.
func splitFrontmatter(content string) (map[string]string, string) {
	if !strings.HasPrefix(content, fmDelim) {
		return nil, content
	}
	rest := content[len(fmDelim):]
	end := strings.Index(rest, fmDelim)
	if end < 0 {
		return nil, content
	}

	fm := parseKeyValues(rest[:end])
	body := strings.TrimLeft(rest[end+len(fmDelim):], "\r\n")
	return fm, body
}

// parseKeyValues parses "key: value" lines. The first colon splits key from
// value; lines without a colon are ignored. Values are trimmed and have one
// layer of surrounding quotes stripped.
func parseKeyValues(block string) map[string]string {
	fm := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fm[strings.TrimSpace(key)] = trimQuotes(strings.TrimSpace(value))
	}
	return fm
}

// trimQuotes removes one layer of matching surrounding quote characters.
func trimQuotes(s string) string {
	for _, q := range []byte{'"', '\''} {
		if len(s) >= 2 && s[0] == q && s[len(s)-1] == q {
			s = s[1 : len(s)-1]
		}
	}
	return s
}

// ScanMentions finds every [display-text](target.md) link in content.
// Display text may not contain ']', the target may not contain ')', and the
// target must end in ".md". Targets are reduced to their base filename with
// any leading "./" stripped. Source order and duplicates are preserved;
// deduplication happens later, per target, in the graph assembler.
func ScanMentions(content string) []models.Mention {
	var out []models.Mention
	for i := 0; i < len(content); {
		open := strings.IndexByte(content[i:], '[')
		if open < 0 {
			break
		}
		open += i

		text, target, next, ok := matchMention(content, open)
		if !ok {
			i = open + 1
			continue
		}
		out = append(out, models.Mention{Text: text, Target: target})
		i = next
	}
	return out
}

// matchMention tries to match a link whose '[' sits at open. On success it
// returns the display text, the normalized target filename, and the offset
// just past the closing ')'.
func matchMention(s string, open int) (text, target string, next int, ok bool) {
	closeBr := strings.IndexByte(s[open+1:], ']')
	if closeBr < 0 {
		return "", "", 0, false
	}
	closeBr += open + 1
	text = s[open+1 : closeBr]
	if text == "" {
		return "", "", 0, false
	}

	if closeBr+1 >= len(s) || s[closeBr+1] != '(' {
		return "", "", 0, false
	}
	closePar := strings.IndexByte(s[closeBr+2:], ')')
	if closePar < 0 {
		return "", "", 0, false
	}
	closePar += closeBr + 2

	target = normalizeTarget(s[closeBr+2 : closePar])
	if target == "" {
		return "", "", 0, false
	}
	return text, target, closePar + 1, true
}

// normalizeTarget reduces a raw link path to its base filename. Returns ""
// when the path is not a .md reference.
func normalizeTarget(raw string) string {
	raw = strings.TrimPrefix(raw, ".")
	raw = strings.TrimPrefix(raw, "/")
	if raw == "" || !strings.HasSuffix(raw, ".md") {
		return ""
	}
	// Directory prefixes are discarded: links resolve by filename only.
	return path.Base(strings.ReplaceAll(raw, `\`, "/"))
}
