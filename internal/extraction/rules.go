package extraction

import "invoicegrid/internal/config"

// HeaderMode selects the header detection variant.
type HeaderMode string

const (
	// HeaderStrict scans deep into the table and demands table-like structure.
	HeaderStrict HeaderMode = "strict"
	// HeaderLenient accepts any early row with two header-like cells.
	HeaderLenient HeaderMode = "lenient"
)

// Rules holds every vocabulary list and threshold the pipeline uses.
// Build one with DefaultRules and adjust fields before calling NewPipeline.
type Rules struct {
	HeaderMode HeaderMode

	// Strict header detection.
	HeaderScanRows          int
	HeaderMinCells          int
	HeaderMinScore          int
	HeaderStructureMinCells int
	HeaderColumnTerms       []string
	HeaderSplitTerms        []string
	HeaderDescriptiveTerms  []string
	HeaderFinancialTerms    []string

	// Lenient header detection.
	LenientScanRows   int
	LenientMinCells   int
	LenientMinMatches int
	LenientTerms      []string

	// Row normalization.
	HeaderKeyMaxLen int
	MinRecordFields int

	// Noise classification. Values longer than MeaningfulMinLen count as meaningful;
	// rows with at most FewMeaningfulMax of them are noise.
	MeaningfulMinLen     int
	FewMeaningfulMax     int
	TotalTerms           []string
	CompanyTerms         []string
	CompanyMaxMeaningful int
	ShortValueMaxLen     int
	NumericMaxMeaningful int

	// Tenant names count as letterhead and as boilerplate descriptions.
	TenantNames []string

	// Field extraction.
	DescriptionMinLen         int
	DescriptionPriorityTerms  []string
	DescriptionPriorityWeight int
	ValidDescriptionMinLen    int
	BoilerplateTerms          []string
	BoilerplateMaxWordLen     int

	// Text fallback.
	TextMinLineLen        int
	TextSkipTerms         []string
	TextMinDescriptionLen int
}

// DefaultRules returns the canonical rule set.
func DefaultRules() Rules {
	return Rules{
		HeaderMode: HeaderStrict,

		HeaderScanRows:          30,
		HeaderMinCells:          3,
		HeaderMinScore:          2,
		HeaderStructureMinCells: 4,
		HeaderColumnTerms:       []string{"description", "quantity", "price", "amount", "vat", "total"},
		HeaderSplitTerms:        []string{"quantit", "unitprice", "amountgbp", "amount gbp"},
		HeaderDescriptiveTerms:  []string{"description", "quantit"},
		HeaderFinancialTerms:    []string{"price", "amount"},

		LenientScanRows:   5,
		LenientMinCells:   2,
		LenientMinMatches: 2,
		LenientTerms: []string{
			"description", "desc", "item", "product", "service",
			"quantity", "qty", "quantit", "amount", "price", "rate",
			"unit", "total", "vat", "tax",
		},

		HeaderKeyMaxLen: 30,
		MinRecordFields: 2,

		MeaningfulMinLen: 2,
		FewMeaningfulMax: 1,
		TotalTerms: []string{
			"TOTAL", "SUBTOTAL", "SUB-TOTAL", "GRAND TOTAL",
			"VAT", "TAX", "NET", "GROSS", "BALANCE",
			"AMOUNT DUE", "INVOICE TOTAL", "FINAL TOTAL",
			"SHIPPING", "DELIVERY", "DISCOUNT",
			"TOTA", "OTAL",
		},
		CompanyTerms: []string{
			"LIMITED", "LTD", "LLC", "CORP", "CORPORATION", "INC",
			"TECHNOLOGY", "SOLUTIONS", "SERVICES", "GROUP", "COMPANY",
		},
		CompanyMaxMeaningful: 2,
		ShortValueMaxLen:     3,
		NumericMaxMeaningful: 3,

		TenantNames: []string{"ANEXIAN", "ILICOMM"},

		DescriptionMinLen:         5,
		DescriptionPriorityTerms:  []string{"description", "quantit"},
		DescriptionPriorityWeight: 100,
		ValidDescriptionMinLen:    3,
		BoilerplateTerms: []string{
			"LIMITED", "LTD", "CORP", "COMPANY", "INC",
			"TECHNOLOGY", "SOLUTIONS", "SERVICES",
			"ADDRESS", "PHONE", "EMAIL", "FAX",
		},
		BoilerplateMaxWordLen: 8,

		TextMinLineLen:        15,
		TextSkipTerms:         []string{"total", "subtotal", "tax", "discount", "grand", "due", "balance", "page"},
		TextMinDescriptionLen: 5,
	}
}

// RulesFromConfig returns DefaultRules with the configured header mode and tenant names applied.
func RulesFromConfig(cfg config.ExtractionConfig) Rules {
	r := DefaultRules()
	switch HeaderMode(cfg.HeaderMode) {
	case HeaderLenient:
		r.HeaderMode = HeaderLenient
	default:
		r.HeaderMode = HeaderStrict
	}
	if len(cfg.TenantNames) > 0 {
		r.TenantNames = append([]string(nil), cfg.TenantNames...)
	}
	return r
}
