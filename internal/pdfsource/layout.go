package pdfsource

import (
	"sort"
	"strings"
	"unicode/utf8"

	"invoicegrid/internal/domain"
)

// Glyph is a positioned run of text as reported by the PDF content stream.
// Y grows upwards, as in PDF user space.
type Glyph struct {
	S        string
	X        float64
	Y        float64
	W        float64
	FontSize float64
}

// LayoutOptions tunes how glyphs are grouped into lines, cells, and tables.
// Gap factors are multiples of the glyph font size.
type LayoutOptions struct {
	LineTolerance   float64
	WordGapFactor   float64
	CellGapFactor   float64
	ColumnTolerance float64
	RuledMinCells   int
	TextMinCells    int
	MinTableRows    int
}

// DefaultLayoutOptions returns settings that suit typical invoice layouts.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		LineTolerance:   2.0,
		WordGapFactor:   0.15,
		CellGapFactor:   1.0,
		ColumnTolerance: 8.0,
		RuledMinCells:   3,
		TextMinCells:    2,
		MinTableRows:    2,
	}
}

type fragment struct {
	text string
	x0   float64
	x1   float64
}

type textLine struct {
	y         float64
	fragments []fragment
}

func (l textLine) text() string {
	parts := make([]string, len(l.fragments))
	for i, f := range l.fragments {
		parts[i] = f.text
	}
	return strings.Join(parts, " ")
}

// PageLayout is the text and table grids recovered from one page.
type PageLayout struct {
	Text   string
	Tables [][][]*string
	Method string
}

// AnalyzePage rebuilds reading-order text and table grids from positioned glyphs.
// Aligned detection runs first; the looser text-based pass only runs when it finds nothing.
func AnalyzePage(glyphs []Glyph, opts LayoutOptions) PageLayout {
	lines := buildLines(glyphs, opts)

	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.text())
	}
	out := PageLayout{Text: strings.Join(texts, "\n")}

	if tables := detectTables(lines, opts.RuledMinCells, opts); len(tables) > 0 {
		out.Tables = tables
		out.Method = domain.DetectionRuled
		return out
	}

	for _, t := range detectTables(lines, opts.TextMinCells, opts) {
		if len(t) > 1 && meaningfulRows(t) >= 2 {
			out.Tables = append(out.Tables, t)
		}
	}
	if len(out.Tables) > 0 {
		out.Method = domain.DetectionText
	}
	return out
}

// buildLines clusters glyphs into lines by baseline, then splits each line
// into fragments wherever the horizontal gap is wide enough to be a column break.
func buildLines(glyphs []Glyph, opts LayoutOptions) []textLine {
	sorted := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	if len(sorted) == 0 {
		return nil
	}

	// Top to bottom, then left to right.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var groups [][]Glyph
	var lineY float64
	for _, g := range sorted {
		if len(groups) > 0 && abs(lineY-g.Y) < opts.LineTolerance {
			groups[len(groups)-1] = append(groups[len(groups)-1], g)
			continue
		}
		groups = append(groups, []Glyph{g})
		lineY = g.Y
	}

	lines := make([]textLine, 0, len(groups))
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool { return group[i].X < group[j].X })
		if frags := splitFragments(group, opts); len(frags) > 0 {
			lines = append(lines, textLine{y: group[0].Y, fragments: frags})
		}
	}
	return lines
}

func splitFragments(glyphs []Glyph, opts LayoutOptions) []fragment {
	var frags []fragment
	var cur *fragment
	pendingSpace := false

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			pendingSpace = true
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = 10
		}
		width := g.W
		if width <= 0 {
			width = float64(utf8.RuneCountInString(g.S)) * size * 0.5
		}

		if cur != nil {
			gap := g.X - cur.x1
			switch {
			case gap > opts.CellGapFactor*size:
				frags = append(frags, *cur)
				cur = nil
			case pendingSpace || gap > opts.WordGapFactor*size:
				cur.text += " " + g.S
				cur.x1 = max(cur.x1, g.X+width)
			default:
				cur.text += g.S
				cur.x1 = max(cur.x1, g.X+width)
			}
		}
		if cur == nil {
			cur = &fragment{text: g.S, x0: g.X, x1: g.X + width}
		}
		pendingSpace = false
	}
	if cur != nil {
		frags = append(frags, *cur)
	}

	for i := range frags {
		frags[i].text = strings.TrimSpace(frags[i].text)
	}
	return frags
}

// detectTables finds runs of consecutive lines that each split into at least
// minCells fragments and aligns each run onto shared column anchors.
func detectTables(lines []textLine, minCells int, opts LayoutOptions) [][][]*string {
	var tables [][][]*string
	var block []textLine

	flush := func() {
		if len(block) >= opts.MinTableRows {
			tables = append(tables, alignBlock(block, opts.ColumnTolerance))
		}
		block = nil
	}

	for _, l := range lines {
		if len(l.fragments) >= minCells {
			block = append(block, l)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func alignBlock(block []textLine, tolerance float64) [][]*string {
	var xs []float64
	for _, l := range block {
		for _, f := range l.fragments {
			xs = append(xs, f.x0)
		}
	}
	sort.Float64s(xs)
	anchors := clusterValues(xs, tolerance)

	grid := make([][]*string, 0, len(block))
	for _, l := range block {
		row := make([]*string, len(anchors))
		for _, f := range l.fragments {
			col := nearest(anchors, f.x0)
			if row[col] != nil {
				joined := *row[col] + " " + f.text
				row[col] = &joined
				continue
			}
			text := f.text
			row[col] = &text
		}
		grid = append(grid, row)
	}
	return grid
}

// clusterValues merges sorted values that fall within tolerance of the
// running cluster centre, averaging them as it goes.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	clustered := []float64{values[0]}
	for _, v := range values[1:] {
		last := clustered[len(clustered)-1]
		if v-last > tolerance {
			clustered = append(clustered, v)
			continue
		}
		clustered[len(clustered)-1] = (last + v) / 2
	}
	return clustered
}

func nearest(anchors []float64, x float64) int {
	best := 0
	for i, a := range anchors {
		if abs(a-x) < abs(anchors[best]-x) {
			best = i
		}
	}
	return best
}

func meaningfulRows(table [][]*string) int {
	n := 0
	for _, row := range table {
		for _, c := range row {
			if c != nil && strings.TrimSpace(*c) != "" {
				n++
				break
			}
		}
	}
	return n
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
