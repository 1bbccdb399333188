package extraction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
)

func TestPipeline_IsNoise(t *testing.T) {
	p := newTestPipeline()

	tests := []struct {
		name     string
		rec      domain.CandidateRecord
		wantRule string
	}{
		{"subtotal", record("description", "Subtotal", "amount", "45.00"), extraction.RuleTotalVocabulary},
		{"split total", record("column_1", "Tota", "column_2", "l 120.00"), extraction.RuleTotalVocabulary},
		{"shipping", record("description", "Shipping and handling", "amount", "5.00"), extraction.RuleTotalVocabulary},
		{"single meaningful value", record("description", "Notes", "amount", "12"), extraction.RuleTooFewMeaningful},
		{"letterhead", record("description", "Acme Solutions Ltd", "amount", "120"), extraction.RuleCompanyLetterhead},
		{"tenant letterhead", record("column_1", "Ilicomm", "column_2", "London"), extraction.RuleCompanyLetterhead},
		{"bare amounts", record("unit_price", "£12.00", "vat", "20%", "amount", "120.00"), extraction.RuleNumericOnly},
		{"line item", record("description", "Widget A", "quantity", "3", "unit_price", "10.00", "amount", "30.00"), ""},
		{"letterhead with many fields", record("description", "Cloud services bundle", "quantity", "12", "unit_price", "10.00", "amount", "120.00"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noise, rule := p.IsNoise(tt.rec)
			assert.Equal(t, tt.wantRule != "", noise)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestPipeline_IsNoise_FewMeaningfulMaxFromRules(t *testing.T) {
	rec := record("description", "Widget A", "amount", "30.00")

	noise, _ := newTestPipeline().IsNoise(rec)
	assert.False(t, noise)

	rules := extraction.DefaultRules()
	rules.FewMeaningfulMax = 2
	noise, rule := extraction.NewPipeline(rules, nil).IsNoise(rec)
	assert.True(t, noise)
	assert.Equal(t, extraction.RuleTooFewMeaningful, rule)
}

func TestPipeline_NoiseRules_Order(t *testing.T) {
	p := newTestPipeline()

	var names []string
	for _, r := range p.NoiseRules() {
		names = append(names, r.Name())
	}

	assert.Equal(t, []string{
		extraction.RuleTotalVocabulary,
		extraction.RuleTooFewMeaningful,
		extraction.RuleCompanyLetterhead,
		extraction.RuleNumericOnly,
	}, names)
}

// --- Vocabulary ---

func TestVocabulary(t *testing.T) {
	v := extraction.NewVocabulary("price", "amount", "price", "", "unit")

	assert.Equal(t, []string{"price", "amount", "unit"}, v.Terms())
	assert.Equal(t, 2, v.Count("unit price unit price"))
	assert.True(t, v.Any("total amount"))
	assert.False(t, v.Any("TOTAL AMOUNT"))
	assert.False(t, extraction.NewVocabulary().Any("anything"))
}
