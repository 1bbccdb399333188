package extraction

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"invoicegrid/internal/domain"
)

// DetectHeader finds the first row that looks like a column header row.
// Tables with fewer than two rows never have a header.
func (p *Pipeline) DetectHeader(rows [][]*string) (*domain.HeaderRow, bool) {
	if len(rows) < 2 {
		return nil, false
	}
	if p.rules.HeaderMode == HeaderLenient {
		return p.detectHeaderLenient(rows)
	}

	limit := min(len(rows), p.rules.HeaderScanRows)
	for i := 0; i < limit; i++ {
		cells := trimCells(rows[i])
		filled := nonEmpty(cells)
		if len(filled) < p.rules.HeaderMinCells {
			continue
		}

		// Joined so that headers split across cells ("Quantit" + "y") still match.
		combined := strings.ToLower(strings.Join(filled, " "))

		columnScore := p.headerColumns.Count(combined)
		splitScore := p.headerSplits.Count(combined)
		structured := p.headerDescriptive.Any(combined) &&
			p.headerFinancial.Any(combined) &&
			len(filled) >= p.rules.HeaderStructureMinCells

		if columnScore >= p.rules.HeaderMinScore || splitScore >= p.rules.HeaderMinScore || structured {
			p.log.WithFields(logrus.Fields{
				"row":          i,
				"column_score": columnScore,
				"split_score":  splitScore,
				"structured":   structured,
			}).Debug("extraction.DetectHeader: header row found")
			return &domain.HeaderRow{RowIndex: i, Labels: cells}, true
		}
	}
	return nil, false
}

func (p *Pipeline) detectHeaderLenient(rows [][]*string) (*domain.HeaderRow, bool) {
	limit := min(len(rows), p.rules.LenientScanRows)
	for i := 0; i < limit; i++ {
		cells := trimCells(rows[i])
		filled := nonEmpty(cells)
		if len(filled) < p.rules.LenientMinCells {
			continue
		}
		matches := 0
		for _, c := range filled {
			if p.lenientTerms.Any(strings.ToLower(c)) {
				matches++
			}
		}
		if matches >= p.rules.LenientMinMatches {
			return &domain.HeaderRow{RowIndex: i, Labels: cells}, true
		}
	}
	return nil, false
}

// GenericLabels returns column_1..column_n for tables without a header row.
func GenericLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("column_%d", i+1)
	}
	return labels
}

func trimCells(row []*string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		if c != nil {
			out[i] = strings.TrimSpace(*c)
		}
	}
	return out
}

func nonEmpty(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
