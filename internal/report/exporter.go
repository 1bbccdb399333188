package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"invoicegrid/internal/domain"
)

// Sheet names in workbook order.
const (
	SheetSummary   = "Summary"
	SheetLineItems = "Line Items"
	SheetTextData  = "Text Data"
	SheetTables    = "Tables"
)

const (
	textPreviewLimit    = 1000
	previewRows         = 3
	previewColumns      = 5
	previewCellLimit    = 20
	maxColumnWidth      = 50
	maxTableColumnWidth = 60
	wrapThreshold       = 30
	noItemsMessage      = "No line items detected in any files"
	noItemsDetail       = "The PDFs may not contain structured table data or may be image-based"
)

var preferredOrder = []string{
	domain.FieldDescription,
	domain.FieldQuantity,
	domain.FieldUnitPrice,
	domain.FieldVAT,
	domain.FieldAmount,
}

// Exporter renders extraction results as a four-sheet xlsx workbook.
type Exporter struct {
	log logrus.FieldLogger
}

// NewExporter creates an Exporter. A nil logger discards output.
func NewExporter(logger logrus.FieldLogger) *Exporter {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Exporter{log: logger}
}

// Export writes the workbook to w.
func (e *Exporter) Export(results []domain.ExtractionResult, w io.Writer) error {
	f, err := e.Build(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report.Export: writing workbook: %w", err)
	}
	return nil
}

// ExportFile saves the workbook at path.
func (e *Exporter) ExportFile(results []domain.ExtractionResult, path string) error {
	f, err := e.Build(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report.ExportFile: saving %s: %w", path, err)
	}
	e.log.WithField("path", path).Info("report.ExportFile: workbook saved")
	return nil
}

// Build assembles the workbook in memory. The caller must Close it.
func (e *Exporter) Build(results []domain.ExtractionResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := e.build(f, results); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (e *Exporter) build(f *excelize.File, results []domain.ExtractionResult) error {
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("report.Build: %w", err)
	}
	for _, name := range []string{SheetLineItems, SheetTextData, SheetTables} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("report.Build: creating sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	steps := []struct {
		sheet string
		fill  string
		limit int
		write func(*sheetWriter, []domain.ExtractionResult) error
	}{
		{SheetSummary, "366092", maxColumnWidth, e.writeSummary},
		{SheetLineItems, "FF6B6B", maxColumnWidth, e.writeLineItems},
		{SheetTextData, "70AD47", maxColumnWidth, e.writeTextData},
		{SheetTables, "E7E6E6", maxTableColumnWidth, e.writeTables},
	}
	for _, step := range steps {
		sw, err := newSheetWriter(f, step.sheet, step.fill, step.limit)
		if err != nil {
			return err
		}
		if err := step.write(sw, results); err != nil {
			return fmt.Errorf("report.Build: sheet %q: %w", step.sheet, err)
		}
		if err := sw.finish(); err != nil {
			return fmt.Errorf("report.Build: sheet %q: %w", step.sheet, err)
		}
	}
	return nil
}

func (e *Exporter) writeSummary(sw *sheetWriter, results []domain.ExtractionResult) error {
	if err := sw.header("Filename", "Pages", "Tables Found", "Line Items Found", "Has Text", "File Size (KB)", "Status"); err != nil {
		return err
	}
	for _, r := range results {
		hasText, status := "No", "Success"
		if r.HasText() {
			hasText = "Yes"
		}
		if r.Failed() {
			status = "Error"
		}
		err := sw.row(false,
			r.Filename,
			r.Metadata.Pages,
			len(r.Tables),
			len(r.LineItems),
			hasText,
			fmt.Sprintf("%.1f", float64(r.Metadata.FileSizeBytes)/1024),
			status,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// LineItemColumns returns the union of item keys across successful results,
// preferred fields first and the rest alphabetically. Internal keys are excluded.
func LineItemColumns(results []domain.ExtractionResult) []string {
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Failed() {
			continue
		}
		for i := range r.LineItems {
			for _, k := range r.LineItems[i].Keys() {
				if !domain.InternalFields[k] {
					seen[k] = true
				}
			}
		}
	}

	cols := make([]string, 0, len(seen))
	for _, k := range preferredOrder {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func (e *Exporter) writeLineItems(sw *sheetWriter, results []domain.ExtractionResult) error {
	cols := LineItemColumns(results)
	titler := cases.Title(language.Und)

	headers := make([]string, 0, len(cols)+2)
	headers = append(headers, "Filename")
	for _, c := range cols {
		headers = append(headers, titler.String(strings.ReplaceAll(c, "_", " ")))
	}
	headers = append(headers, "Source")
	if err := sw.header(headers...); err != nil {
		return err
	}

	total := 0
	for _, r := range results {
		if r.Failed() {
			continue
		}
		for i := range r.LineItems {
			li := &r.LineItems[i]
			values := make([]any, 0, len(headers))
			values = append(values, r.Filename)
			for _, c := range cols {
				v, _ := li.Field(c)
				values = append(values, v)
			}
			source := li.Source
			if source == "" {
				source = domain.SourceTableParsing
			}
			values = append(values, string(source))
			if err := sw.row(true, values...); err != nil {
				return err
			}
			total++
		}
	}

	if total == 0 {
		return sw.row(false, noItemsMessage, noItemsDetail)
	}
	e.log.WithFields(logrus.Fields{"items": total, "columns": len(cols)}).Debug("report.Exporter: line items written")
	return nil
}

func (e *Exporter) writeTextData(sw *sheetWriter, results []domain.ExtractionResult) error {
	if err := sw.header("Filename", "Invoice Number", "Date", "Vendor", "Total Amount", "Full Text"); err != nil {
		return err
	}
	for _, r := range results {
		if r.Failed() || r.Text == "" {
			continue
		}
		err := sw.row(true,
			r.Filename,
			r.Invoice.InvoiceNumber,
			r.Invoice.Date,
			r.Invoice.Vendor,
			r.Invoice.TotalAmount,
			truncateText(r.Text, textPreviewLimit, "..."),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeTables(sw *sheetWriter, results []domain.ExtractionResult) error {
	if err := sw.header("Filename", "Page", "Table #", "Rows", "Columns", "Table Data (Preview)"); err != nil {
		return err
	}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		for i := range r.Tables {
			t := &r.Tables[i]
			err := sw.row(true,
				r.Filename,
				t.Page,
				t.TableNumber,
				t.RowCount(),
				t.ColumnCount(),
				TablePreview(t.Rows),
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// TablePreview renders the top-left corner of a grid as pipe-separated lines.
func TablePreview(rows [][]*string) string {
	var lines []string
	for i, row := range rows {
		if i == previewRows {
			break
		}
		if len(row) == 0 {
			continue
		}
		if len(row) > previewColumns {
			row = row[:previewColumns]
		}
		cells := make([]string, len(row))
		for j, c := range row {
			if c != nil {
				cells[j] = truncateText(*c, previewCellLimit, "")
			}
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}

func truncateText(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + suffix
}
