package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"fnaterm/internal/fna"
	"fnaterm/internal/theme"
)

// formEditor edits the fields of one tab. Values are read from and written to
// the controller's draft on every keystroke, so the editor can be rebuilt at
// any time without losing input.
type formEditor struct {
	fields []fna.FieldSpec
	focus  int
	input  textinput.Model
	area   textarea.Model
}

func newFormEditor(tab fna.Tab, ctrl *fna.Controller) (formEditor, tea.Cmd) {
	input := textinput.New()
	input.Prompt = ""
	// No limits: SetValue would cut stored text and the next keystroke
	// would write the shortened value back to the draft.
	input.CharLimit = 0
	input.Width = 48

	area := textarea.New()
	area.ShowLineNumbers = false
	area.CharLimit = 0
	area.MaxHeight = 0
	area.SetWidth(60)
	area.SetHeight(4)

	e := formEditor{fields: fna.FieldsFor(tab), input: input, area: area}
	cmd := e.load(ctrl)
	return e, cmd
}

func (e *formEditor) focused() (fna.FieldSpec, bool) {
	if e.focus < 0 || e.focus >= len(e.fields) {
		return fna.FieldSpec{}, false
	}
	return e.fields[e.focus], true
}

// load copies the focused field's draft value into its widget and focuses it.
func (e *formEditor) load(ctrl *fna.Controller) tea.Cmd {
	e.input.Blur()
	e.area.Blur()
	spec, ok := e.focused()
	if !ok {
		return nil
	}
	switch spec.Kind {
	case fna.KindTriState:
		return nil
	case fna.KindLongText:
		e.area.SetValue(ctrl.Text(spec.Field))
		return e.area.Focus()
	default:
		e.input.Placeholder = placeholderFor(spec.Kind)
		e.input.SetValue(ctrl.Text(spec.Field))
		e.input.CursorEnd()
		return e.input.Focus()
	}
}

func (e *formEditor) move(delta int, ctrl *fna.Controller) tea.Cmd {
	if len(e.fields) == 0 {
		return nil
	}
	e.focus = (e.focus + delta + len(e.fields)) % len(e.fields)
	return e.load(ctrl)
}

// update routes a key to the focused field and records the result in the draft.
func (e *formEditor) update(msg tea.Msg, ctrl *fna.Controller) (tea.Cmd, error) {
	spec, ok := e.focused()
	if !ok {
		return nil, nil
	}
	switch spec.Kind {
	case fna.KindTriState:
		key, ok := msg.(tea.KeyMsg)
		if !ok {
			return nil, nil
		}
		switch strings.ToLower(key.String()) {
		case "y":
			return nil, ctrl.SetField(spec.Field, fna.Yes)
		case "n":
			return nil, ctrl.SetField(spec.Field, fna.No)
		case "backspace", "delete", "u":
			return nil, ctrl.SetField(spec.Field, fna.Unknown)
		case " ", "left", "right":
			return nil, ctrl.SetField(spec.Field, toggle(ctrl.Flag(spec.Field)))
		}
		return nil, nil
	case fna.KindLongText:
		var cmd tea.Cmd
		e.area, cmd = e.area.Update(msg)
		return cmd, ctrl.SetField(spec.Field, e.area.Value())
	default:
		var cmd tea.Cmd
		e.input, cmd = e.input.Update(msg)
		return cmd, ctrl.SetField(spec.Field, e.input.Value())
	}
}

func (e formEditor) view(th theme.Theme, ctrl *fna.Controller) string {
	var lines []string
	for i, spec := range e.fields {
		marker := "  "
		label := th.Secondary.Render(spec.Label)
		if i == e.focus {
			marker = th.Accent.Render("› ")
			label = th.Highlight.Render(spec.Label)
		}
		lines = append(lines, marker+label)

		var value string
		switch {
		case spec.Kind == fna.KindTriState:
			value = renderTriState(th, ctrl.Flag(spec.Field))
		case i == e.focus && spec.Kind == fna.KindLongText:
			value = e.area.View()
		case i == e.focus:
			value = e.input.View()
		default:
			raw := ctrl.Text(spec.Field)
			if raw == "" {
				value = th.Faint.Render("—")
			} else {
				value = th.Primary.Render(firstLine(raw))
			}
		}
		lines = append(lines, "    "+value)
	}
	return strings.Join(lines, "\n")
}

// renderTriState shows both choices; Unknown selects neither.
func renderTriState(th theme.Theme, v fna.TriState) string {
	yes, no := "( ) Yes", "( ) No"
	switch v {
	case fna.Yes:
		yes = th.Success.Render("(•) Yes")
	case fna.No:
		no = th.Danger.Render("(•) No")
	}
	return fmt.Sprintf("%s   %s", yes, no)
}

func toggle(v fna.TriState) fna.TriState {
	if v == fna.Yes {
		return fna.No
	}
	return fna.Yes
}

func placeholderFor(k fna.Kind) string {
	switch k {
	case fna.KindAmount:
		return "0"
	case fna.KindCount:
		return "0"
	case fna.KindDate:
		return fna.DateLayout
	case fna.KindClock:
		return "HH:MM"
	default:
		return ""
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
