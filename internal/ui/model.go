package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"fnaterm/internal/config"
	"fnaterm/internal/fna"
	"fnaterm/internal/theme"
)

// Program wraps the Bubble Tea program lifecycle.
type Program struct {
	program *tea.Program
}

// NewProgram constructs an interactive intake session.
func NewProgram(selector *fna.Selector, ctrl *fna.Controller, prefs *config.Prefs, timeout time.Duration) *Program {
	m := newModel(selector, ctrl, prefs, timeout)
	return &Program{program: tea.NewProgram(m, tea.WithAltScreen())}
}

// Start launches the Bubble Tea program and blocks until it exits.
func (p *Program) Start() error {
	if p == nil || p.program == nil {
		return fmt.Errorf("nil program")
	}
	_, err := p.program.Run()
	return err
}

type viewState int

const (
	statePicker viewState = iota
	stateForm
)

const flashDuration = 3 * time.Second

type model struct {
	state       viewState
	prevStates  []viewState
	selector    *fna.Selector
	ctrl        *fna.Controller
	prefs       *config.Prefs
	theme       theme.Theme
	timeout     time.Duration
	width       int
	height      int
	infoMessage string
	errMessage  string
	flashSeq    int

	filter         textinput.Model
	results        fna.FilterResult
	cursor         int
	loadingClients bool

	tabs          TabBar
	editor        formEditor
	loadingHeader bool
	saving        bool
	spinner       spinner.Model
}

func newModel(selector *fna.Selector, ctrl *fna.Controller, prefs *config.Prefs, timeout time.Duration) *model {
	filter := textinput.New()
	filter.Prompt = ""
	filter.Placeholder = "Search by name or phone"
	filter.CharLimit = 64
	filter.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	th := theme.Default()
	spin.Style = th.Accent

	return &model{
		state:          statePicker,
		selector:       selector,
		ctrl:           ctrl,
		prefs:          prefs,
		theme:          th,
		timeout:        timeout,
		filter:         filter,
		loadingClients: true,
		tabs:           NewTabBar(),
		spinner:        spin,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadClientsCmd())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tabs.SetWidth(msg.Width)
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case clientsLoadedMsg:
		return m, m.handleClientsLoaded(msg)
	case headerLoadedMsg:
		return m, m.handleHeaderLoaded(msg)
	case headerSavedMsg:
		return m, m.handleHeaderSaved(msg)
	case flashExpiredMsg:
		if msg.seq == m.flashSeq {
			m.infoMessage = ""
		}
		return m, nil
	case TabSwitchMsg:
		m.tabs.SetActive(msg.Tab)
		var cmd tea.Cmd
		m.editor, cmd = newFormEditor(msg.Tab, m.ctrl)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.state {
	case stateForm:
		cmd = m.updateForm(msg)
	default:
		m.state = statePicker
		cmd = m.updatePicker(msg)
	}
	return m, cmd
}

func (m *model) View() string {
	switch m.state {
	case statePicker:
		return m.viewPicker()
	case stateForm:
		return m.viewForm()
	default:
		return ""
	}
}

// Navigation helpers
func (m *model) pushState(next viewState) {
	m.prevStates = append(m.prevStates, m.state)
	m.state = next
}

func (m *model) popState() {
	if len(m.prevStates) == 0 {
		m.state = statePicker
		return
	}
	idx := len(m.prevStates) - 1
	m.state = m.prevStates[idx]
	m.prevStates = m.prevStates[:idx]
}

func (m *model) resetMessages() {
	m.errMessage = ""
	m.infoMessage = ""
}

func (m *model) busy() bool {
	return m.loadingClients || m.loadingHeader || m.saving
}

func batchCmds(cmds []tea.Cmd) tea.Cmd {
	filtered := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return tea.Batch(filtered...)
	}
}

// Backend commands

func (m *model) loadClientsCmd() tea.Cmd {
	selector, timeout := m.selector, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		clients, err := selector.List(ctx)
		return clientsLoadedMsg{clients: clients, err: err}
	}
}

func (m *model) loadHeaderCmd(sel fna.Selection) tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		h, err := ctrl.Load(ctx, sel)
		return headerLoadedMsg{sel: sel, header: h, err: err}
	}
}

func (m *model) saveCmd() tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return headerSavedMsg{err: ctrl.Save(ctx)}
	}
}

func (m *model) handleClientsLoaded(msg clientsLoadedMsg) tea.Cmd {
	m.loadingClients = false
	if msg.err != nil {
		m.errMessage = msg.err.Error()
		return nil
	}
	m.selector.Reset(msg.clients)
	m.refreshResults()
	return nil
}

func (m *model) handleHeaderLoaded(msg headerLoadedMsg) tea.Cmd {
	if errors.Is(msg.err, fna.ErrStaleSelection) || msg.sel.ClientID != m.ctrl.ClientID() {
		return nil
	}
	m.loadingHeader = false
	if msg.err != nil {
		m.errMessage = msg.err.Error()
		return nil
	}
	var cmd tea.Cmd
	m.editor, cmd = newFormEditor(m.tabs.Active(), m.ctrl)
	return cmd
}

func (m *model) handleHeaderSaved(msg headerSavedMsg) tea.Cmd {
	m.saving = false
	if msg.err != nil {
		m.infoMessage = ""
		m.errMessage = "Error saving: " + msg.err.Error()
		return nil
	}
	m.errMessage = ""
	m.infoMessage = "✅ Saved successfully!"
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashExpiredMsg{seq: seq} })
}

// beginSelection makes c the active client. It reports false when c was
// already active and its header is loaded or loading, in which case the
// draft is kept as is. A client whose load failed is loaded again.
func (m *model) beginSelection(c fna.Client) (fna.Selection, bool) {
	if !m.selector.Select(c) {
		if _, loaded := m.ctrl.Header(); loaded || m.loadingHeader {
			return fna.Selection{}, false
		}
	}
	return m.ctrl.Begin(c.ID), true
}

// Picker

func (m *model) refreshResults() {
	m.results = m.selector.Filter(m.filter.Value())
	if m.cursor >= len(m.results.Clients) {
		m.cursor = len(m.results.Clients) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) updatePicker(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return nil
		case "down", "ctrl+n":
			if m.cursor < len(m.results.Clients)-1 {
				m.cursor++
			}
			return nil
		case "enter":
			if len(m.results.Clients) == 0 {
				return nil
			}
			return m.openClient(m.results.Clients[m.cursor])
		case "esc":
			if _, ok := m.selector.Active(); ok {
				m.pushState(stateForm)
				return m.editor.load(m.ctrl)
			}
			return nil
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refreshResults()
	return cmd
}

func (m *model) openClient(c fna.Client) tea.Cmd {
	m.resetMessages()
	m.filter.Blur()
	m.pushState(stateForm)
	sel, changed := m.beginSelection(c)
	if !changed {
		return m.editor.load(m.ctrl)
	}
	m.tabs = NewTabBar()
	m.tabs.SetWidth(m.width)
	m.editor = formEditor{}
	m.loadingHeader = true
	return batchCmds([]tea.Cmd{m.loadHeaderCmd(sel), m.spinner.Tick})
}

func (m *model) viewPicker() string {
	lines := []string{m.theme.Title.Render("Financial Needs Analysis")}
	lines = append(lines, m.theme.Faint.Render("Type to search. ↑/↓ to choose, Enter to open, Esc returns to the open client, Ctrl+C quits."))
	if active, ok := m.selector.Active(); ok {
		lines = append(lines, m.theme.Subtitle.Render("Active: "+clientLabel(active)))
	}
	lines = append(lines, "")

	switch {
	case m.loadingClients:
		lines = append(lines, m.spinner.View()+" "+m.theme.Faint.Render("Loading clients..."))
	case len(m.results.Clients) == 0 && m.errMessage == "":
		lines = append(lines, m.theme.Warning.Render(m.results.Message()))
	default:
		loc := m.prefs.Location()
		for i, c := range m.results.Clients {
			line := fmt.Sprintf("%s  %s", c.FullName(), c.Phone)
			if i == m.cursor {
				lines = append(lines, m.theme.Accent.Render("› ")+m.theme.Highlight.Render(line))
			} else {
				lines = append(lines, "  "+m.theme.Primary.Render(line))
			}
			if !c.CreatedAt.IsZero() && i == m.cursor {
				lines = append(lines, "    "+m.theme.Faint.Render("Registered "+c.CreatedAt.In(loc).Format("Jan 02 2006 15:04")))
			}
		}
	}

	lines = append(lines, "", m.theme.Border.Render(strings.Repeat("─", 40)))
	lines = append(lines, m.theme.Accent.Render("find> ")+m.filter.View())
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Form

func (m *model) updateForm(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.popState()
			return m.filter.Focus()
		case "ctrl+s":
			if m.saving || m.loadingHeader {
				return nil
			}
			if _, ok := m.ctrl.Header(); !ok {
				m.infoMessage = ""
				m.errMessage = "Error saving: " + fna.ErrNoHeader.Error() + ". Press Esc and reopen the client to retry."
				return nil
			}
			m.saving = true
			m.resetMessages()
			return batchCmds([]tea.Cmd{m.saveCmd(), m.spinner.Tick})
		case "tab":
			return m.editor.move(1, m.ctrl)
		case "shift+tab":
			return m.editor.move(-1, m.ctrl)
		case "up", "down":
			if spec, ok := m.editor.focused(); !ok || spec.Kind != fna.KindLongText {
				if key.String() == "up" {
					return m.editor.move(-1, m.ctrl)
				}
				return m.editor.move(1, m.ctrl)
			}
		}

		var cmd tea.Cmd
		if m.tabs, cmd = m.tabs.Update(msg); cmd != nil {
			return cmd
		}
	}

	if m.loadingHeader {
		return nil
	}
	cmd, err := m.editor.update(msg, m.ctrl)
	if err != nil {
		m.errMessage = err.Error()
	}
	return cmd
}

func (m *model) viewForm() string {
	lines := []string{m.theme.Title.Render("Financial Needs Analysis")}
	if active, ok := m.selector.Active(); ok {
		lines = append(lines, m.theme.Subtitle.Render("Client: "+clientLabel(active)))
	}
	lines = append(lines, "", m.tabs.View(m.theme), "")

	switch {
	case m.loadingHeader:
		lines = append(lines, m.spinner.View()+" "+m.theme.Faint.Render("Loading analysis..."))
	case m.tabs.Active() == fna.TabLiabilities:
		lines = append(lines, m.theme.Faint.Render("Liabilities are captured in a later step."))
	default:
		lines = append(lines, m.editor.view(m.theme, m.ctrl))
	}

	lines = append(lines, "", m.saveButton())
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	lines = append(lines, "", m.helpLine())
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) saveButton() string {
	if m.saving {
		return m.theme.ButtonBusy.Render(m.spinner.View() + " Saving...")
	}
	return m.theme.Button.Render("Save (Ctrl+S)")
}

func (m *model) helpLine() string {
	pairs := [][2]string{
		{"PgUp/PgDn", "tabs"},
		{"Tab/↑↓", "fields"},
		{"y/n/⌫", "yes/no/clear"},
		{"Ctrl+S", "save"},
		{"Esc", "clients"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, m.theme.HelpKey.Render(p[0])+" "+m.theme.HelpValue.Render(p[1]))
	}
	return strings.Join(parts, "  ")
}

func clientLabel(c fna.Client) string {
	if c.Phone == "" {
		return c.FullName()
	}
	return fmt.Sprintf("%s (%s)", c.FullName(), c.Phone)
}
