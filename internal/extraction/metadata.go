package extraction

import (
	"regexp"
	"strings"

	"invoicegrid/internal/domain"
)

type metadataPatterns struct {
	invoiceNumber []*regexp.Regexp
	date          []*regexp.Regexp
	total         []*regexp.Regexp
	vendor        []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?im)` + e)
	}
	return out
}

func newMetadataPatterns() metadataPatterns {
	const datePart = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`
	const amountPart = `\$?([0-9,]+\.?\d*)`
	return metadataPatterns{
		invoiceNumber: compileAll(
			`invoice\s*#?\s*:?\s*([A-Z0-9\-_]+)`,
			`inv\s*#?\s*:?\s*([A-Z0-9\-_]+)`,
			`invoice\s*number\s*:?\s*([A-Z0-9\-_]+)`,
		),
		date: compileAll(
			`date\s*:?\s*`+datePart,
			`invoice\s*date\s*:?\s*`+datePart,
			datePart,
		),
		total: compileAll(
			`total\s*:?\s*`+amountPart,
			`amount\s*due\s*:?\s*`+amountPart,
			`grand\s*total\s*:?\s*`+amountPart,
		),
		vendor: compileAll(
			`from\s*:?\s*([^\n]+)`,
			`vendor\s*:?\s*([^\n]+)`,
			`company\s*:?\s*([^\n]+)`,
		),
	}
}

// ExtractInvoiceMetadata pulls invoice-level fields out of the full document
// text. Each field takes the first pattern that matches; the fields are not
// checked against each other.
func (p *Pipeline) ExtractInvoiceMetadata(text string) domain.InvoiceMetadata {
	return domain.InvoiceMetadata{
		InvoiceNumber: firstMatch(p.metadata.invoiceNumber, text),
		Date:          firstMatch(p.metadata.date, text),
		TotalAmount:   firstMatch(p.metadata.total, text),
		Vendor:        firstMatch(p.metadata.vendor, text),
	}
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
