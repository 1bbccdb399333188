package extraction

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"invoicegrid/internal/domain"
)

var (
	trailingQuantityPattern = regexp.MustCompile(`\s+(\d+\.?\d*)\s*$`)
	percentTokenPattern     = regexp.MustCompile(`^\d{1,3}%$`)
	priceTokenPattern       = regexp.MustCompile(`^\d+\.\d{2}$`)
	plainNumberPattern      = regexp.MustCompile(`^\d+\.?\d*$`)
)

type descriptionCandidate struct {
	key    string
	value  string
	weight int
}

// ExtractFields resolves the canonical line item fields from a candidate
// record. It reports false when the record cannot form a valid line item.
func (p *Pipeline) ExtractFields(rec domain.CandidateRecord) (domain.LineItem, bool) {
	item := domain.LineItem{Source: domain.SourceTableParsing, Provenance: rec.Provenance}
	consumed := make(map[string]bool, len(rec.Keys))

	descKey, desc, ok := p.pickDescription(rec)
	if !ok {
		return domain.LineItem{}, false
	}
	consumed[descKey] = true

	if m := trailingQuantityPattern.FindStringSubmatchIndex(desc); m != nil {
		item.Quantity = desc[m[2]:m[3]]
		desc = strings.TrimSpace(desc[:m[0]])
	}
	desc = p.walkTrailingTokens(desc, &item)
	item.Description = desc

	if item.Quantity == "" {
		for _, k := range rec.Keys {
			if consumed[k] {
				continue
			}
			v := strings.TrimSpace(rec.Fields[k])
			if !isQuantityKey(k) || !isDigitLike(v) {
				continue
			}
			item.Quantity = v
			consumed[k] = true
			break
		}
	}

	for _, k := range rec.Keys {
		if consumed[k] {
			continue
		}
		v := strings.TrimSpace(rec.Fields[k])
		switch {
		case item.UnitPrice == "" && (strings.Contains(k, "price") || strings.Contains(k, "unit")):
			if plainNumberPattern.MatchString(v) {
				item.UnitPrice = v
				consumed[k] = true
			}
		case item.Amount == "" && (strings.Contains(k, "amount") || strings.Contains(k, "total")):
			if plainNumberPattern.MatchString(v) {
				item.Amount = v
				consumed[k] = true
			}
		case item.VAT == "" && (strings.Contains(k, "vat") || strings.Contains(k, "tax")):
			item.VAT = v
			consumed[k] = true
		}
	}

	// Amount columns often carry currency symbols the numeric pattern rejects.
	if item.Amount == "" {
		if v, ok := rec.Fields[domain.FieldAmount]; ok && !consumed[domain.FieldAmount] {
			item.Amount = strings.TrimSpace(v)
			consumed[domain.FieldAmount] = true
		}
	}

	if !p.validLineItem(&item) {
		return domain.LineItem{}, false
	}

	for _, k := range rec.Keys {
		if consumed[k] || domain.InternalFields[k] || isCanonical(k) {
			continue
		}
		v := strings.TrimSpace(rec.Fields[k])
		if v == "" {
			continue
		}
		if item.Extra == nil {
			item.Extra = make(map[string]string)
		}
		item.Extra[k] = v
	}
	return item, true
}

// pickDescription prefers description-like columns, then the longest value.
func (p *Pipeline) pickDescription(rec domain.CandidateRecord) (string, string, bool) {
	var candidates []descriptionCandidate
	for _, k := range rec.Keys {
		v := strings.TrimSpace(rec.Fields[k])
		n := utf8.RuneCountInString(v)
		if n <= p.rules.DescriptionMinLen {
			continue
		}
		weight := n
		if p.descriptionPriority.Any(k) {
			weight = p.rules.DescriptionPriorityWeight
		}
		candidates = append(candidates, descriptionCandidate{key: k, value: v, weight: weight})
	}
	if len(candidates) == 0 {
		return "", "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})
	return candidates[0].key, candidates[0].value, true
}

// walkTrailingTokens pops numeric tokens merged onto the end of a description
// and files them as VAT, unit price, or quantity.
func (p *Pipeline) walkTrailingTokens(desc string, item *domain.LineItem) string {
	tokens := strings.Fields(desc)
	end := len(tokens)
	for end > 0 {
		tok := tokens[end-1]
		switch {
		case percentTokenPattern.MatchString(tok) && item.VAT == "":
			item.VAT = tok
		case priceTokenPattern.MatchString(tok) && item.UnitPrice == "":
			item.UnitPrice = tok
		case priceTokenPattern.MatchString(tok) && item.Quantity == "":
			item.Quantity = tok
		case plainNumberPattern.MatchString(tok) && item.Quantity == "":
			item.Quantity = tok
		default:
			return strings.Join(tokens[:end], " ")
		}
		end--
	}
	return strings.Join(tokens[:end], " ")
}

func (p *Pipeline) validLineItem(item *domain.LineItem) bool {
	if utf8.RuneCountInString(item.Description) <= p.rules.ValidDescriptionMinLen {
		return false
	}
	if item.UnitPrice == "" && item.Amount == "" {
		return false
	}
	return !p.isBoilerplate(item.Description)
}

// isBoilerplate flags letterhead text and single short words.
func (p *Pipeline) isBoilerplate(desc string) bool {
	upper := strings.ToUpper(desc)
	if p.boilerplate.Any(upper) {
		return true
	}
	return p.singleWordPattern.MatchString(upper)
}

func isQuantityKey(k string) bool {
	return k == "y" || strings.Contains(k, "qty") || strings.Contains(k, "quantit")
}

func isDigitLike(v string) bool {
	v = strings.ReplaceAll(v, ".", "")
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isCanonical(k string) bool {
	for _, c := range domain.CanonicalFields {
		if k == c {
			return true
		}
	}
	return false
}
