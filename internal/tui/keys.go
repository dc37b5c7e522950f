package tui

import "github.com/charmbracelet/bubbles/key"

// browseKeys are the bindings of the entity browser. The filter input owns
// every printable key, so the rest sit on control and navigation keys.
type browseKeys struct {
	Up       key.Binding
	Down     key.Binding
	Copy     key.Binding
	Quit     key.Binding
	Sort     key.Binding
	DaysUp   key.Binding
	DaysDown key.Binding
	DaysPgUp key.Binding
	DaysPgDn key.Binding
}

var keys = browseKeys{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("up/C-k", "prev"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("dn/C-j", "next"),
	),
	Copy: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "copy summary"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("Esc", "quit"),
	),
	Sort: key.NewBinding(
		key.WithKeys("ctrl+s", "tab"),
		key.WithHelp("Tab", "sort"),
	),
	DaysUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "days up"),
	),
	DaysDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "days down"),
	),
	DaysPgUp: key.NewBinding(
		key.WithKeys("pgup"),
	),
	DaysPgDn: key.NewBinding(
		key.WithKeys("pgdown"),
	),
}

// shortHelp is what the status bar advertises.
func (k browseKeys) shortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Sort, k.DaysUp, k.DaysDown, k.Copy, k.Quit}
}

// helpLine renders bindings as "up/C-k prev | Tab sort | ...", skipping
// bindings without help text.
func helpLine(bindings []key.Binding) []string {
	var out []string
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		out = append(out, styleHelpKey.Render(h.Key)+" "+h.Desc)
	}
	return out
}

// sortOrder is how the browser orders entity totals.
type sortOrder int

const (
	sortByName sortOrder = iota
	sortByTotal
	sortByDays
)

func (o sortOrder) next() sortOrder {
	return (o + 1) % 3
}

func (o sortOrder) String() string {
	switch o {
	case sortByTotal:
		return "total"
	case sortByDays:
		return "days"
	default:
		return "name"
	}
}

// label names the order for the status bar, e.g. "sort: total".
func (o sortOrder) label() string {
	return styleSortMode.Render("sort: " + o.String())
}
