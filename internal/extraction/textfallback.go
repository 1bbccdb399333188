package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"invoicegrid/internal/domain"
)

var textLinePattern = regexp.MustCompile(`(.{10,}?)\s+\$?([0-9,]+\.?\d{0,2})\s*$`)

// ParseTextLines scans raw text for "description ... amount" lines. It is the
// last resort when no table produced a line item.
func (p *Pipeline) ParseTextLines(text string) []domain.LineItem {
	var items []domain.LineItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < p.rules.TextMinLineLen {
			continue
		}
		m := textLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[1])
		if p.textSkip.Any(strings.ToLower(desc)) {
			continue
		}
		if utf8.RuneCountInString(desc) <= p.rules.TextMinDescriptionLen {
			continue
		}
		items = append(items, domain.LineItem{
			Description: desc,
			Amount:      m[2],
			Source:      domain.SourceTextParsing,
		})
	}
	return items
}
