package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
)

func strs(values ...string) []*string {
	row := make([]*string, len(values))
	for i := range values {
		v := values[i]
		row[i] = &v
	}
	return row
}

func TestPipeline_ExtractTable_NoiseFilteredBeforeFieldExtraction(t *testing.T) {
	p := NewPipeline(DefaultRules(), nil)

	var seen []string
	p.extractFn = func(rec domain.CandidateRecord) (domain.LineItem, bool) {
		seen = append(seen, rec.Fields["description"])
		return p.ExtractFields(rec)
	}

	items := p.ExtractTable(domain.RawTable{Page: 1, TableNumber: 1, Rows: [][]*string{
		strs("Description", "Quantity", "Unit Price", "Amount"),
		strs("Subtotal", "", "", "45.00"),
		strs("Notes", "", "", "12"),
		strs("Acme Solutions Ltd", "", "", "120"),
		strs("£12.00", "", "20%", "120.00"),
		strs("Widget A", "3", "10.00", "30.00"),
	}})

	assert.Equal(t, []string{"Widget A"}, seen)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].RowNumber)
}
