package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, BOM), "output must start with a UTF-8 BOM")
	records, err := csv.NewReader(bytes.NewReader(data[len(BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriter_Write(t *testing.T) {
	results := []domain.ExtractionResult{
		{
			Filename: "a.pdf",
			LineItems: []domain.LineItem{
				{
					Description: "Widget A", Quantity: "3", UnitPrice: "10.00", Amount: "30.00",
					Source:     domain.SourceTableParsing,
					Provenance: domain.Provenance{Page: 1, TableNumber: 2, RowNumber: 4},
				},
				{Description: "Consulting, March", Amount: "1,250.00", Source: domain.SourceTextParsing},
			},
		},
		{Filename: "broken.pdf", Error: "boom", LineItems: []domain.LineItem{{Description: "Hidden", Amount: "1"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(results))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Filename", "Description", "Quantity", "Unit Price", "VAT", "Amount", "Source", "Page", "Table", "Row"}, records[0])
	assert.Equal(t, []string{"a.pdf", "Widget A", "3", "10.00", "", "30.00", "table_parsing", "1", "2", "4"}, records[1])
	assert.Equal(t, []string{"a.pdf", "Consulting, March", "", "", "", "1,250.00", "text_parsing", "", "", ""}, records[2])
}

func TestPosition_MarshalCSV(t *testing.T) {
	tests := []struct {
		name string
		in   Position
		want string
	}{
		{"no provenance", 0, ""},
		{"first", 1, "1"},
		{"multi digit", 12, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.MarshalCSV()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRows_TextFallbackHasNoPosition(t *testing.T) {
	rows := Rows([]domain.ExtractionResult{{
		Filename:  "x.pdf",
		LineItems: []domain.LineItem{{Description: "Consulting hours", Amount: "250.00", Source: domain.SourceTextParsing}},
	}})

	require.Len(t, rows, 1)
	assert.Equal(t, Position(0), rows[0].Page)
	assert.Equal(t, Position(0), rows[0].Table)
	assert.Equal(t, Position(0), rows[0].RowNumber)
}

func TestRows_DefaultsSource(t *testing.T) {
	rows := Rows([]domain.ExtractionResult{{Filename: "x.pdf", LineItems: []domain.LineItem{{Description: "Item one", Amount: "5"}}}})

	require.Len(t, rows, 1)
	assert.Equal(t, "table_parsing", rows[0].Source)
}

func TestRows_Empty(t *testing.T) {
	assert.Empty(t, Rows(nil))
	assert.NotNil(t, Rows(nil))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "March Supplier Invoices", "March_Supplier_Invoices"},
		{"special chars", "FY 2024-25 / Q3 (Oct–Dec)", "FY_2024-25_Q3_Oct_Dec"},
		{"unicode", "कंपनी Invoices", "Invoices"},
		{"hyphens and underscores preserved", "batch-7_2025", "batch-7_2025"},
		{"consecutive underscores collapsed", "test___batch", "test_batch"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{
			"long name truncated",
			"abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-extra",
			"abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrs",
		},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	today := time.Now().Format("2006-01-02")

	assert.Equal(t, "March_Supplier_Invoices_"+today+".csv", BuildFilename("March Supplier Invoices", "csv"))
	assert.Equal(t, "line_items_"+today+".xlsx", BuildFilename("///", "xlsx"))
}
