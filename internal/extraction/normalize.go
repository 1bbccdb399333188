package extraction

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"invoicegrid/internal/domain"
)

// NormalizeRow maps a data row onto header labels. It reports false when the
// row is blank or has fewer non-empty fields than a line item needs.
func (p *Pipeline) NormalizeRow(row []*string, labels []string, prov domain.Provenance) (domain.CandidateRecord, bool) {
	rec := domain.NewCandidateRecord(prov)
	for i, label := range labels {
		if i >= len(row) || row[i] == nil {
			continue
		}
		value := strings.TrimSpace(*row[i])
		if value == "" {
			continue
		}
		key := p.CleanHeaderKey(label)
		if key == "" {
			key = fmt.Sprintf("column_%d", i+1)
		}
		rec.Set(key, value)
	}
	if len(rec.Keys) == 0 || len(rec.Keys) < p.rules.MinRecordFields {
		return rec, false
	}
	return rec, true
}

// CleanHeaderKey turns a header label into a stable lowercase key.
// An empty result means the caller should fall back to a positional name.
func (p *Pipeline) CleanHeaderKey(label string) string {
	label = norm.NFKC.String(label)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	key := strings.Trim(b.String(), "_")
	if utf8.RuneCountInString(key) > p.rules.HeaderKeyMaxLen {
		key = string([]rune(key)[:p.rules.HeaderKeyMaxLen])
	}
	return key
}
