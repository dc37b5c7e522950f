package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/miscreaders/internal/render"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

const debounceDelay = 150 * time.Millisecond

// message types

type filterResultMsg struct {
	query   string
	entries []usage.EntityTotal
}

type debounceTickMsg struct {
	query string
}

// model

type model struct {
	table       *usage.Table
	title       string
	totals      []usage.EntityTotal
	order       sortOrder
	query       string
	entries     []usage.EntityTotal
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // entity shown in the preview
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *usage.EntityTotal
}

func initialModel(tbl *usage.Table, title string) model {
	ti := textinput.New()
	ti.Placeholder = "Filter " + tbl.EntityColumn() + "s..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	totals := tbl.TotalByEntity()
	return model{
		table:       tbl,
		title:       title,
		totals:      totals,
		entries:     totals,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the browser and blocks until it exits. If the user picks an
// entity, a one-line summary of it is copied to the clipboard.
func Run(tbl *usage.Table, title string) error {
	m := initialModel(tbl, title)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.selected != nil {
		return copySummary(tbl, *fm.selected)
	}
	return nil
}

// summaryLine describes an entity total, e.g.
// "YouTube: 3h 5m over 12 days (2024-03-01..2024-03-12)".
func summaryLine(tbl *usage.Table, t usage.EntityTotal) string {
	amount := render.Amount(usage.Record{Duration: t.Duration, Value: t.Value}, tbl.Measure())
	rows := tbl.EntityRows(t.Entity)
	if len(rows) == 0 {
		return fmt.Sprintf("%s: %s", t.Entity, amount)
	}
	return fmt.Sprintf("%s: %s over %d days (%s..%s)",
		t.Entity, amount, t.Days, rows[0].Date, rows[len(rows)-1].Date)
}

func copySummary(tbl *usage.Table, t usage.EntityTotal) error {
	line := summaryLine(tbl, t)
	if err := clipboard.WriteAll(line); err != nil {
		fmt.Printf("%s\n", line)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", line)
	return nil
}

// sortEntries returns a copy of totals in the given order. Ties, and the
// name order itself, fall back to the entity name.
func sortEntries(totals []usage.EntityTotal, order sortOrder, measure usage.Measure) []usage.EntityTotal {
	out := append([]usage.EntityTotal(nil), totals...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case sortByTotal:
			if ta, tb := entityMagnitude(a, measure), entityMagnitude(b, measure); ta != tb {
				return ta > tb
			}
		case sortByDays:
			if a.Days != b.Days {
				return a.Days > b.Days
			}
		}
		return a.Entity < b.Entity
	})
	return out
}

func entityMagnitude(t usage.EntityTotal, m usage.Measure) float64 {
	return magnitude(usage.Record{Duration: t.Duration, Value: t.Value}, m)
}

// filterEntries keeps the totals whose entity contains query, case-insensitively.
func filterEntries(totals []usage.EntityTotal, query string) []usage.EntityTotal {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return totals
	}
	var out []usage.EntityTotal
	for _, t := range totals {
		if strings.Contains(strings.ToLower(t.Entity), query) {
			out = append(out, t)
		}
	}
	return out
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		m.loadCurrentPreview()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			if len(m.entries) > 0 && m.cursor < len(m.entries) {
				e := m.entries[m.cursor]
				m.selected = &e
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				m.loadCurrentPreview()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				m.loadCurrentPreview()
			}
			return m, nil

		case key.Matches(msg, keys.Sort):
			m.resort(m.order.next())
			return m, nil

		case key.Matches(msg, keys.DaysUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.DaysDown):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.DaysPgUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.DaysPgDn):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// Pass remaining keys to text input
		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		newQuery := m.filterInput.Value()
		if newQuery != m.query {
			m.query = newQuery
			cmds = append(cmds, scheduleDebouncedFilter(newQuery))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.entries) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			visibleItems := m.panelHeight() / linesPerItem
			maxOffset := len(m.entries) - visibleItems
			if maxOffset < 0 {
				maxOffset = 0
			}
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.entries) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				m.loadCurrentPreview()
			}
			return m, nil

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}

		return m, nil

	case debounceTickMsg:
		// Only filter if the query hasn't changed since the tick was scheduled
		if msg.query == m.query {
			cmds = append(cmds, m.doFilter(msg.query))
		}
		return m, tea.Batch(cmds...)

	case filterResultMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.entries = msg.entries
		m.cursor = 0
		m.listOffset = 0
		m.loadCurrentPreview()
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filterInput.View()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (relY / linesPerItem)
	}
	if x > listBoxRight+1 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d/%d %ss", len(m.entries), len(m.totals), m.table.EntityColumn()),
	}
	if m.title != "" {
		parts = append(parts, m.title)
	}
	parts = append(parts, m.order.label())
	parts = append(parts, helpLine(keys.shortHelp())...)
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// resort switches the list order and keeps the cursor on the same entity.
func (m *model) resort(order sortOrder) {
	current := ""
	if m.cursor < len(m.entries) {
		current = m.entries[m.cursor].Entity
	}
	m.order = order
	m.totals = sortEntries(m.totals, order, m.table.Measure())
	m.entries = sortEntries(m.entries, order, m.table.Measure())
	m.cursor = 0
	for i, e := range m.entries {
		if e.Entity == current {
			m.cursor = i
			break
		}
	}
	m.adjustListScroll(m.panelHeight())
	m.loadCurrentPreview()
}

func (m model) doFilter(query string) tea.Cmd {
	totals := m.totals
	return func() tea.Msg {
		return filterResultMsg{query: query, entries: filterEntries(totals, query)}
	}
}

func scheduleDebouncedFilter(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

// loadCurrentPreview shows the daily rows of the entity under the cursor.
func (m *model) loadCurrentPreview() {
	if len(m.entries) == 0 || m.cursor >= len(m.entries) {
		m.preview.SetContent("")
		m.previewKey = ""
		return
	}
	entity := m.entries[m.cursor].Entity
	if entity == m.previewKey {
		return
	}
	m.preview.SetContent(renderEntityDetail(m.table, entity, m.previewWidth()))
	m.preview.GotoTop()
	m.previewKey = entity
}
