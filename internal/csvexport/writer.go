package csvexport

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"invoicegrid/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one line item as it appears in the CSV export.
type Row struct {
	Filename    string   `csv:"Filename"`
	Description string   `csv:"Description"`
	Quantity    string   `csv:"Quantity"`
	UnitPrice   string   `csv:"Unit Price"`
	VAT         string   `csv:"VAT"`
	Amount      string   `csv:"Amount"`
	Source      string   `csv:"Source"`
	Page        Position `csv:"Page"`
	Table       Position `csv:"Table"`
	RowNumber   Position `csv:"Row"`
}

// Position is a 1-based page, table, or row number. Zero means the item has
// no table provenance and is written as an empty cell.
type Position int

// MarshalCSV implements gocsv.TypeMarshaller.
func (p Position) MarshalCSV() (string, error) {
	if p <= 0 {
		return "", nil
	}
	return strconv.Itoa(int(p)), nil
}

// Writer exports line items as CSV.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write emits the BOM, the header row, and one row per line item of every successful result.
func (w *Writer) Write(results []domain.ExtractionResult) error {
	if _, err := w.w.Write(BOM); err != nil {
		return fmt.Errorf("csvexport.Write: %w", err)
	}
	rows := Rows(results)
	if err := gocsv.Marshal(&rows, w.w); err != nil {
		return fmt.Errorf("csvexport.Write: %w", err)
	}
	return nil
}

// Rows flattens results into CSV rows. Failed results contribute nothing.
func Rows(results []domain.ExtractionResult) []Row {
	rows := make([]Row, 0)
	for _, r := range results {
		if r.Failed() {
			continue
		}
		for i := range r.LineItems {
			rows = append(rows, lineItemToRow(r.Filename, &r.LineItems[i]))
		}
	}
	return rows
}

func lineItemToRow(filename string, li *domain.LineItem) Row {
	source := li.Source
	if source == "" {
		source = domain.SourceTableParsing
	}
	return Row{
		Filename:    filename,
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		VAT:         li.VAT,
		Amount:      li.Amount,
		Source:      string(source),
		Page:        Position(li.Page),
		Table:       Position(li.TableNumber),
		RowNumber:   Position(li.RowNumber),
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized download name.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "line_items"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
