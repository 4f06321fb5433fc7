package backlog

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// headingCheckbox matches a level three heading that starts with a task
// checkbox, e.g. "### [ ] Add login" or "### [x] Ship it".
var headingCheckbox = regexp.MustCompile(`^###\s+\[([ xX])\]\s+(.+)$`)

// sliceSeparator ends a description early. Text after it, up to the next
// item heading, belongs to no item.
const sliceSeparator = "---"

// ParsedItem is a backlog entry read from a markdown document.
type ParsedItem struct {
	Content     string `json:"content"`
	Description string `json:"description"`
	Checked     bool   `json:"checked"`
	LineNumber  int    `json:"line_number"` // 1-based line of the heading
}

// ParseResult holds the items found in a document and the document's
// content fingerprint.
type ParseResult struct {
	Items []ParsedItem
	Hash  string
}

// Parse extracts heading-checkbox items from a markdown document.
//
// Only "###" headings carrying a checkbox are items; bullet checkboxes are
// ignored. An item's description is the text between its heading and the
// next item heading, cut at the first "---" line and stripped of leading and
// trailing blank lines. Parse never fails: input without items yields an
// empty list and the hash is always set.
func Parse(text string) ParseResult {
	lines := strings.Split(text, "\n")

	type heading struct {
		index   int
		checked bool
		content string
	}

	var headings []heading
	for i, line := range lines {
		m := headingCheckbox.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		content := strings.TrimSpace(m[2])
		if content == "" {
			continue
		}
		headings = append(headings, heading{
			index:   i,
			checked: strings.EqualFold(m[1], "x"),
			content: content,
		})
	}

	items := make([]ParsedItem, 0, len(headings))
	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].index
		}

		items = append(items, ParsedItem{
			Content:     h.content,
			Description: description(lines[h.index+1 : end]),
			Checked:     h.checked,
			LineNumber:  h.index + 1,
		})
	}

	return ParseResult{Items: items, Hash: Fingerprint(text)}
}

// Fingerprint returns the hex SHA-256 digest of a raw document.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func description(body []string) string {
	for i, line := range body {
		if strings.TrimSpace(line) == sliceSeparator {
			body = body[:i]
			break
		}
	}

	for len(body) > 0 && strings.TrimSpace(body[0]) == "" {
		body = body[1:]
	}
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}

	return strings.Join(body, "\n")
}
