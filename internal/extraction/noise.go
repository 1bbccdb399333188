package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"invoicegrid/internal/domain"
)

// Noise rule names, reported by IsNoise.
const (
	RuleTotalVocabulary   = "total_vocabulary"
	RuleTooFewMeaningful  = "too_few_meaningful"
	RuleCompanyLetterhead = "company_letterhead"
	RuleNumericOnly       = "numeric_only"
)

var currencyValuePattern = regexp.MustCompile(`^[£$€]?[\d.,]+[£$€]?%?$`)

// noiseSubject is the view of a record that noise rules inspect.
type noiseSubject struct {
	combined   string
	meaningful []string
}

// NoiseRule decides whether a candidate record is a total, letterhead, or filler row.
type NoiseRule interface {
	Name() string
	Match(s *noiseSubject) bool
}

// IsNoise runs the noise rules in order and reports the first that fires.
func (p *Pipeline) IsNoise(rec domain.CandidateRecord) (bool, string) {
	s := p.subjectOf(rec)
	for _, rule := range p.noiseRules {
		if rule.Match(s) {
			return true, rule.Name()
		}
	}
	return false, ""
}

func (p *Pipeline) subjectOf(rec domain.CandidateRecord) *noiseSubject {
	values := make([]string, 0, len(rec.Keys))
	meaningful := make([]string, 0, len(rec.Keys))
	for _, v := range rec.Values() {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		values = append(values, v)
		if utf8.RuneCountInString(v) > p.rules.MeaningfulMinLen {
			meaningful = append(meaningful, v)
		}
	}
	return &noiseSubject{combined: strings.Join(values, " "), meaningful: meaningful}
}

// NoiseRules returns the configured rules in evaluation order.
func (p *Pipeline) NoiseRules() []NoiseRule {
	out := make([]NoiseRule, len(p.noiseRules))
	copy(out, p.noiseRules)
	return out
}

func buildNoiseRules(r Rules) []NoiseRule {
	return []NoiseRule{
		&totalVocabularyRule{vocab: NewVocabulary(r.TotalTerms...)},
		&tooFewMeaningfulRule{max: r.FewMeaningfulMax},
		&companyLetterheadRule{
			vocab:         NewVocabulary(append(append([]string{}, r.CompanyTerms...), upperAll(r.TenantNames)...)...),
			maxMeaningful: r.CompanyMaxMeaningful,
		},
		&numericOnlyRule{
			shortLen:      r.ShortValueMaxLen,
			maxMeaningful: r.NumericMaxMeaningful,
		},
	}
}

// totalVocabularyRule catches totals, tax lines, and layout-split fragments of TOTAL.
type totalVocabularyRule struct {
	vocab *Vocabulary
}

func (r *totalVocabularyRule) Name() string { return RuleTotalVocabulary }

func (r *totalVocabularyRule) Match(s *noiseSubject) bool {
	return r.vocab.Any(s.combined)
}

type tooFewMeaningfulRule struct {
	max int
}

func (r *tooFewMeaningfulRule) Name() string { return RuleTooFewMeaningful }

func (r *tooFewMeaningfulRule) Match(s *noiseSubject) bool {
	return len(s.meaningful) <= r.max
}

// companyLetterheadRule catches short rows that mostly carry a company name.
type companyLetterheadRule struct {
	vocab         *Vocabulary
	maxMeaningful int
}

func (r *companyLetterheadRule) Name() string { return RuleCompanyLetterhead }

func (r *companyLetterheadRule) Match(s *noiseSubject) bool {
	return len(s.meaningful) <= r.maxMeaningful && r.vocab.Any(s.combined)
}

// numericOnlyRule catches rows of bare amounts or percentages with no description.
type numericOnlyRule struct {
	shortLen      int
	maxMeaningful int
}

func (r *numericOnlyRule) Name() string { return RuleNumericOnly }

func (r *numericOnlyRule) Match(s *noiseSubject) bool {
	if len(s.meaningful) > r.maxMeaningful {
		return false
	}
	for _, v := range s.meaningful {
		if !currencyValuePattern.MatchString(v) && utf8.RuneCountInString(v) > r.shortLen {
			return false
		}
	}
	return true
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
