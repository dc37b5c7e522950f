package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/miscreaders/internal/render"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

const barWidth = 20

// renderEntityDetail lists the daily rows of one entity with a bar scaled to
// the entity's busiest day.
func renderEntityDetail(tbl *usage.Table, entity string, width int) string {
	rows := tbl.EntityRows(entity)
	if len(rows) == 0 {
		return "(no rows)"
	}

	var peak float64
	for _, r := range rows {
		if v := magnitude(r, tbl.Measure()); v > peak {
			peak = v
		}
	}

	var b strings.Builder
	writeLine := func(s string) {
		for _, wl := range render.WrapLine(s, width) {
			b.WriteString(wl)
			b.WriteString("\n")
		}
	}

	writeLine(styleTitle.Render(fmt.Sprintf("%s  (%d rows)", entity, len(rows))))
	writeLine("")
	for _, r := range rows {
		amount := render.Amount(r, tbl.Measure())
		bar := styleZeroDay.Render("·")
		if v := magnitude(r, tbl.Measure()); v > 0 && peak > 0 {
			bar = styleBar.Render(strings.Repeat("█", int(v/peak*barWidth+0.5)))
		}
		line := fmt.Sprintf("%s  %s  %s", r.Date, runewidth.FillLeft(amount, 10), bar)
		if r.Device != "" {
			line += "  " + styleDevice.Render(r.Device)
		}
		writeLine(line)
	}
	return b.String()
}

func magnitude(r usage.Record, m usage.Measure) float64 {
	if m == usage.MeasureDuration {
		return float64(r.Duration)
	}
	return r.Value
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
