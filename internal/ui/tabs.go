package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"fnaterm/internal/fna"
	"fnaterm/internal/theme"
)

// TabSwitchMsg is emitted when the active tab changes.
type TabSwitchMsg struct {
	Tab fna.Tab
}

// TabBar renders the six form sections along the top of the form.
// Any tab can be reached from any other; it holds no form data.
type TabBar struct {
	tabs   []fna.Tab
	active int
	width  int
}

// NewTabBar creates a tab bar positioned on the first section.
func NewTabBar() TabBar {
	tabs := make([]fna.Tab, len(fna.Tabs))
	copy(tabs, fna.Tabs)
	return TabBar{tabs: tabs}
}

// SetWidth sets the available width for rendering.
func (t *TabBar) SetWidth(w int) {
	t.width = w
}

// Active returns the current tab.
func (t TabBar) Active() fna.Tab {
	if t.active >= 0 && t.active < len(t.tabs) {
		return t.tabs[t.active]
	}
	return fna.TabAbout
}

// SetActive jumps directly to tab.
func (t *TabBar) SetActive(tab fna.Tab) {
	for i, candidate := range t.tabs {
		if candidate == tab {
			t.active = i
			return
		}
	}
}

// CycleNext advances to the next tab, wrapping around.
func (t *TabBar) CycleNext() {
	t.active = (t.active + 1) % len(t.tabs)
}

// CyclePrev moves to the previous tab, wrapping around.
func (t *TabBar) CyclePrev() {
	t.active = (t.active - 1 + len(t.tabs)) % len(t.tabs)
}

// Update handles tab navigation keys.
func (t TabBar) Update(msg tea.Msg) (TabBar, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	before := t.active
	switch key.String() {
	case "pgdown", "ctrl+right":
		t.CycleNext()
	case "pgup", "ctrl+left":
		t.CyclePrev()
	case "f1", "f2", "f3", "f4", "f5", "f6":
		t.active = int(key.String()[1]-'1') % len(t.tabs)
	default:
		return t, nil
	}
	if t.active == before {
		return t, nil
	}
	tab := t.Active()
	return t, func() tea.Msg { return TabSwitchMsg{Tab: tab} }
}

// View renders the tab bar as a single horizontal line.
func (t TabBar) View(th theme.Theme) string {
	parts := make([]string, 0, len(t.tabs))
	for i, tab := range t.tabs {
		if i == t.active {
			parts = append(parts, th.TabActive.Render(tab.Label()))
		} else {
			parts = append(parts, th.TabInactive.Render(tab.Label()))
		}
	}
	row := strings.Join(parts, " ")
	if t.width > 0 {
		return th.TabBar.Width(t.width).Render(row)
	}
	return row
}
