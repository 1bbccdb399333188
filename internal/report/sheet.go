package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// sheetWriter appends rows to one sheet and tracks content widths for auto-sizing.
type sheetWriter struct {
	f        *excelize.File
	sheet    string
	next     int
	widths   []int
	maxWidth int
	headerID int
	wrapID   int
}

func newSheetWriter(f *excelize.File, sheet, fill string, maxWidth int) (*sheetWriter, error) {
	headerID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
	})
	if err != nil {
		return nil, fmt.Errorf("report: header style: %w", err)
	}
	wrapID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("report: wrap style: %w", err)
	}
	return &sheetWriter{f: f, sheet: sheet, next: 1, maxWidth: maxWidth, headerID: headerID, wrapID: wrapID}, nil
}

func (s *sheetWriter) header(labels ...string) error {
	values := make([]any, len(labels))
	for i, l := range labels {
		values[i] = l
	}
	row := s.next
	if err := s.write(values); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(labels), row)
	return s.f.SetCellStyle(s.sheet, first, last, s.headerID)
}

// row appends values. With wrap set, string cells longer than the wrap threshold wrap.
func (s *sheetWriter) row(wrap bool, values ...any) error {
	row := s.next
	if err := s.write(values); err != nil {
		return err
	}
	if !wrap {
		return nil
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok || utf8.RuneCountInString(str) <= wrapThreshold {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := s.f.SetCellStyle(s.sheet, cell, cell, s.wrapID); err != nil {
			return err
		}
	}
	return nil
}

func (s *sheetWriter) write(values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		return err
	}
	if err := s.f.SetSheetRow(s.sheet, cell, &values); err != nil {
		return err
	}
	for i, v := range values {
		for len(s.widths) <= i {
			s.widths = append(s.widths, 0)
		}
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > s.widths[i] {
			s.widths[i] = n
		}
	}
	s.next++
	return nil
}

// finish sizes each column to its longest value plus padding, capped at maxWidth.
func (s *sheetWriter) finish() error {
	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := s.f.SetColWidth(s.sheet, col, col, float64(min(w+2, s.maxWidth))); err != nil {
			return err
		}
	}
	return nil
}
