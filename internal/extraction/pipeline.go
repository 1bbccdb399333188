package extraction

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"

	"invoicegrid/internal/domain"
)

// Pipeline turns raw table grids and page text into line items. It holds only
// compiled, read-only state, so one Pipeline is safe to share across goroutines.
type Pipeline struct {
	rules Rules
	log   logrus.FieldLogger

	headerColumns     *Vocabulary
	headerSplits      *Vocabulary
	headerDescriptive *Vocabulary
	headerFinancial   *Vocabulary
	lenientTerms      *Vocabulary

	noiseRules []NoiseRule

	descriptionPriority *Vocabulary
	boilerplate         *Vocabulary
	singleWordPattern   *regexp.Regexp

	textSkip *Vocabulary
	metadata metadataPatterns

	// extractFn is ExtractFields unless a test swaps it.
	extractFn func(domain.CandidateRecord) (domain.LineItem, bool)
}

// NewPipeline compiles rules into a Pipeline. A nil logger discards output.
func NewPipeline(rules Rules, logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}

	boilerplateTerms := append(append([]string{}, rules.BoilerplateTerms...), upperAll(rules.TenantNames)...)

	p := &Pipeline{
		rules:               rules,
		log:                 logger,
		headerColumns:       NewVocabulary(rules.HeaderColumnTerms...),
		headerSplits:        NewVocabulary(rules.HeaderSplitTerms...),
		headerDescriptive:   NewVocabulary(rules.HeaderDescriptiveTerms...),
		headerFinancial:     NewVocabulary(rules.HeaderFinancialTerms...),
		lenientTerms:        NewVocabulary(rules.LenientTerms...),
		noiseRules:          buildNoiseRules(rules),
		descriptionPriority: NewVocabulary(rules.DescriptionPriorityTerms...),
		boilerplate:         NewVocabulary(boilerplateTerms...),
		singleWordPattern:   regexp.MustCompile(fmt.Sprintf(`^[\p{L}\p{N}_]{1,%d}$`, rules.BoilerplateMaxWordLen)),
		textSkip:            NewVocabulary(rules.TextSkipTerms...),
		metadata:            newMetadataPatterns(),
	}
	p.extractFn = p.ExtractFields
	return p
}

// Rules returns the rule set the pipeline was built with.
func (p *Pipeline) Rules() Rules {
	return p.rules
}

// Extract runs every table through header detection, normalization, noise
// filtering, and field extraction. When no table yields an item, the text
// fallback runs over text instead.
func (p *Pipeline) Extract(tables []domain.RawTable, text string) []domain.LineItem {
	var items []domain.LineItem
	for i := range tables {
		items = append(items, p.ExtractTable(tables[i])...)
	}
	if len(items) == 0 && text != "" {
		items = p.ParseTextLines(text)
		if len(items) > 0 {
			p.log.WithField("items", len(items)).Debug("extraction.Extract: used text fallback")
		}
	}
	return items
}

// ExtractTable extracts line items from a single table grid.
func (p *Pipeline) ExtractTable(table domain.RawTable) []domain.LineItem {
	if len(table.Rows) < 2 {
		return nil
	}

	log := p.log.WithFields(logrus.Fields{"page": table.Page, "table": table.TableNumber})

	var labels []string
	start := 0
	header, found := p.DetectHeader(table.Rows)
	if found {
		labels = header.Labels
		start = header.RowIndex + 1
	} else {
		labels = GenericLabels(widestRow(table.Rows))
	}

	var items []domain.LineItem
	for idx := start; idx < len(table.Rows); idx++ {
		rowNumber := idx + 1
		if found {
			rowNumber = idx - header.RowIndex
		}
		prov := domain.Provenance{Page: table.Page, TableNumber: table.TableNumber, RowNumber: rowNumber}

		rec, ok := p.NormalizeRow(table.Rows[idx], labels, prov)
		if !ok {
			continue
		}
		if noise, rule := p.IsNoise(rec); noise {
			log.WithFields(logrus.Fields{"row": rowNumber, "rule": rule}).Debug("extraction.ExtractTable: noise row skipped")
			continue
		}
		item, ok := p.extractFn(rec)
		if !ok {
			log.WithField("row", rowNumber).Debug("extraction.ExtractTable: row did not form a line item")
			continue
		}
		items = append(items, item)
	}
	return items
}

func widestRow(rows [][]*string) int {
	n := 0
	for _, r := range rows {
		n = max(n, len(r))
	}
	return n
}
