package docsearch

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Section represents one entry of a page's section outline.
type Section struct {
	Level  int    `json:"level"` // 1, 2 or 3
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
	Offset int    `json:"offset"` // char offset of the heading in the page content
}

// Heading is a content heading observed in HTML, with the anchor id the
// page itself assigns (empty when the element has no id attribute).
type Heading struct {
	Level    int
	Text     string
	AnchorID string
}

var headingRe = regexp.MustCompile(`(?m)^(#{1,3})\s+(.+)$`)

// BuildOutline derives a section outline from markdown content, taking
// anchor ids from the HTML headings when available. Headings are matched to
// markdown in document order. An H3 without its own anchor inherits the
// anchor of the enclosing H2. Headings the HTML didn't anchor fall back to
// a generated URL-safe anchor, deduplicated with numeric suffixes.
func BuildOutline(markdown string, headings []Heading) []Section {
	if markdown == "" {
		return nil
	}

	// Blank out code blocks so # inside code doesn't match, preserving offsets.
	cleaned := blankCodeBlocks(markdown)

	matches := headingRe.FindAllStringSubmatchIndex(cleaned, -1)
	if len(matches) == 0 {
		return nil
	}

	// Index HTML anchors by (level, normalized title), consumed in order so
	// duplicate titles map to their respective ids.
	type key struct {
		level int
		title string
	}
	anchors := make(map[key][]string)
	for _, h := range headings {
		k := key{h.Level, normalizeTitle(h.Text)}
		anchors[k] = append(anchors[k], h.AnchorID)
	}

	sections := make([]Section, 0, len(matches))
	anchorCounts := make(map[string]int)
	currentH2Anchor := ""

	for _, m := range matches {
		level := m[3] - m[2]
		title := strings.TrimSpace(cleaned[m[4]:m[5]])

		anchor := ""
		k := key{level, normalizeTitle(title)}
		if ids := anchors[k]; len(ids) > 0 {
			anchor = ids[0]
			anchors[k] = ids[1:]
		}

		if anchor == "" && level == 3 {
			// H3 without its own id inherits the parent H2's anchor.
			anchor = currentH2Anchor
		}
		if anchor == "" {
			base := GenerateAnchor(title)
			anchor = base
			if count, exists := anchorCounts[base]; exists {
				anchor = base + "-" + strconv.Itoa(count)
				anchorCounts[base]++
			} else {
				anchorCounts[base] = 1
			}
		}

		if level == 2 {
			currentH2Anchor = anchor
		}

		sections = append(sections, Section{
			Level:  level,
			Title:  title,
			Anchor: anchor,
			Offset: m[0],
		})
	}

	return sections
}

// blankCodeBlocks replaces the interior of fenced code blocks with spaces,
// keeping string length (and thus offsets) intact.
func blankCodeBlocks(s string) string {
	codeBlockRe := regexp.MustCompile("(?s)```.*?```")
	return codeBlockRe.ReplaceAllStringFunc(s, func(block string) string {
		return strings.Repeat(" ", len(block))
	})
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// GenerateAnchor creates a URL-safe anchor from a title.
// Converts to lowercase, replaces spaces with hyphens, removes special chars.
func GenerateAnchor(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if unicode.IsSpace(r) || r == '-' {
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
