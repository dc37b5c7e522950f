package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/miscreaders/internal/render"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// linesPerItem is the number of terminal lines each entity occupies.
const linesPerItem = 2

// renderList renders the left panel: entity totals with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.entries) == 0 {
		return styleNoMatches.Width(width).Height(height).Render("No matches")
	}

	var lines []string
	for i, e := range m.entries {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatEntityLine(e, m.table.Measure(), width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatEntityLine formats one entity as two lines:
//
//	line 1: [>] entity  total
//	line 2:    days (dimmed)
func formatEntityLine(e usage.EntityTotal, measure usage.Measure, width int, selected bool) []string {
	total := render.Amount(usage.Record{Duration: e.Duration, Value: e.Value}, measure)
	styledTotal := styleTotal.Render(total)

	nameMax := width - 2 - runewidth.StringWidth(total) - 1
	if nameMax < 0 {
		nameMax = 0
	}
	name := strings.ReplaceAll(e.Entity, "\n", " ")
	if runewidth.StringWidth(name) > nameMax {
		name = runewidth.Truncate(name, nameMax, "…")
	}
	pad := width - 2 - runewidth.StringWidth(name) - runewidth.StringWidth(total)
	if pad < 1 {
		pad = 1
	}

	var line1 string
	if selected {
		line1 = styleListSelected.Render("> ") + styleListSelected.Render(name) + strings.Repeat(" ", pad) + styledTotal
	} else {
		line1 = "  " + styleListNormal.Render(name) + strings.Repeat(" ", pad) + styledTotal
	}

	days := "day"
	if e.Days != 1 {
		days = "days"
	}
	line2 := "    " + styleDays.Render(fmt.Sprintf("%d %s", e.Days, days))

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
