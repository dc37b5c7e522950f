package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/miscreaders/internal/parse"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

const (
	colorReset   = "\033[0m"
	colorBoldRed = "\033[1;31m" // bold red for filter highlights
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleNumber = styleCell.Align(lipgloss.Right)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type Options struct {
	Color     bool   // ANSI styling, off when writing to a pipe
	Limit     int    // rows shown as head and tail around an ellipsis row (0 = all)
	Width     int    // table width (0 = natural)
	Highlight string // entity substring to emphasize
}

// Shape renders the polars-style dimension line, e.g. "shape: (6_222, 4)".
func Shape(rows, cols int) string {
	return fmt.Sprintf("shape: (%s, %d)", strings.ReplaceAll(humanize.Comma(int64(rows)), ",", "_"), cols)
}

// Amount formats the measure of one row.
func Amount(r usage.Record, m usage.Measure) string {
	if m == usage.MeasureDuration {
		return r.Duration.String()
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// Cells returns the row in Table.Columns order.
func Cells(r usage.Record, m usage.Measure) []string {
	return []string{r.Date.String(), r.Entity, Amount(r, m), r.Device}
}

// Table renders a normalized table with a shape line above it.
func Table(tbl *usage.Table, opts Options) string {
	cols := tbl.Columns()
	rows := make([][]string, 0, tbl.Len())
	for _, r := range tbl.Rows() {
		cells := Cells(r, tbl.Measure())
		if opts.Color {
			cells[1] = highlightKeywords(cells[1], opts.Highlight)
		}
		rows = append(rows, cells)
	}
	return Shape(tbl.Len(), len(cols)) + "\n" + grid(cols, elide(rows, opts.Limit), []int{2}, opts)
}

// Totals renders the per-entity totals view.
func Totals(tbl *usage.Table, opts Options) string {
	measure := tbl.Measure().Column()
	cols := []string{tbl.EntityColumn(), "days", measure}
	totals := tbl.TotalByEntity()

	rows := make([][]string, 0, len(totals)+1)
	for _, t := range totals {
		amount := strconv.FormatFloat(t.Value, 'f', -1, 64)
		if tbl.Measure() == usage.MeasureDuration {
			amount = t.Duration.String()
		}
		entity := t.Entity
		if opts.Color {
			entity = highlightKeywords(entity, opts.Highlight)
		}
		rows = append(rows, []string{entity, humanize.Comma(int64(t.Days)), amount})
	}
	rows = elide(rows, opts.Limit)

	d, v := tbl.Total()
	total := strconv.FormatFloat(v, 'f', -1, 64)
	if tbl.Measure() == usage.MeasureDuration {
		total = d.String()
	}
	rows = append(rows, []string{"total", humanize.Comma(int64(tbl.Len())), total})

	return Shape(len(totals), len(cols)) + "\n" + grid(cols, rows, []int{1, 2}, opts)
}

// Habits renders habit definitions, one block per habit.
func Habits(habits []parse.Habit) string {
	var b strings.Builder
	for _, h := range habits {
		fmt.Fprintf(&b, "%d  %s  [%s]", h.ID, h.Name, h.Type)
		if h.Archived {
			b.WriteString("  (archived)")
		}
		b.WriteString("\n")
		if h.Type == parse.HabitNumerical {
			fmt.Fprintf(&b, "    target: %s %s\n", strconv.FormatFloat(h.TargetValue, 'f', -1, 64), h.Unit)
		}
		for _, text := range []string{h.Question, h.Description} {
			if text != "" {
				b.WriteString(indentLines(text, "    "))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// TSV writes the table with a header line, one row per line, for pipes.
func TSV(w io.Writer, tbl *usage.Table) error {
	if _, err := fmt.Fprintln(w, strings.Join(tbl.Columns(), "\t")); err != nil {
		return err
	}
	for _, r := range tbl.Rows() {
		cells := Cells(r, tbl.Measure())
		if tbl.Measure() == usage.MeasureDuration {
			cells[2] = strconv.FormatInt(int64(r.Duration), 10)
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func grid(headers []string, rows [][]string, numeric []int, opts Options) string {
	isNumeric := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		isNumeric[c] = true
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if isNumeric[col] {
				return styleNumber
			}
			return styleCell
		})
	if opts.Color {
		t = t.BorderStyle(styleBorder)
	}
	if opts.Width > 0 {
		t = t.Width(opts.Width)
	}
	return t.String()
}

// elide keeps the first and last limit/2 rows around a row of ellipses.
func elide(rows [][]string, limit int) [][]string {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	head := (limit + 1) / 2
	tail := limit - head
	gap := make([]string, len(rows[0]))
	for i := range gap {
		gap[i] = "…"
	}
	out := make([][]string, 0, limit+1)
	out = append(out, rows[:head]...)
	out = append(out, gap)
	return append(out, rows[len(rows)-tail:]...)
}

// Dim greys out s when color is on.
func Dim(s string, color bool) string {
	if !color {
		return s
	}
	return styleDim.Render(s)
}

// highlightKeywords wraps case-insensitive matches of query in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	lower := strings.ToLower(query)
	i := 0
	for i < len(text) {
		idx := strings.Index(strings.ToLower(text[i:]), lower)
		if idx < 0 {
			break
		}
		pos := i + idx
		orig := text[pos : pos+len(query)]
		replacement := colorBoldRed + orig + colorReset
		text = text[:pos] + replacement + text[pos+len(query):]
		i = pos + len(replacement)
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// WrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func WrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}
