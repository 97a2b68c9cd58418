package erp

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// entityForm is a stack of text inputs built from an entity's FormFields.
type entityForm struct {
	title  string
	fields []FormField
	inputs []textinput.Model
	focus  int
	err    string
	busy   bool
}

func newEntityForm(title string, fields []FormField, values map[string]string, suggest map[string]func() []string) *entityForm {
	f := &entityForm{title: title, fields: fields}
	for i, field := range fields {
		in := textinput.New()
		in.Placeholder = field.Placeholder
		in.CharLimit = 256
		in.Width = 40
		in.Prompt = ""
		in.SetValue(values[field.Key])
		if names, ok := suggest[field.Key]; ok {
			in.ShowSuggestions = true
			in.SetSuggestions(names())
		}
		if i == 0 {
			in.Focus()
		}
		f.inputs = append(f.inputs, in)
	}
	return f
}

func (f *entityForm) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for i, field := range f.fields {
		out[field.Key] = f.inputs[i].Value()
	}
	return out
}

// updateFocus updates which input has focus
func (f *entityForm) updateFocus() tea.Cmd {
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

// update moves focus on tab and arrows and feeds everything else to the
// focused input. It reports true when the form should be submitted.
func (f *entityForm) update(msg tea.Msg) (tea.Cmd, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !f.busy {
		switch keyMsg.String() {
		case "tab":
			// Tab completes a pending suggestion before moving on.
			in := f.inputs[f.focus]
			if s := in.CurrentSuggestion(); in.ShowSuggestions && s != "" && s != in.Value() {
				break
			}
			f.focus = (f.focus + 1) % len(f.inputs)
			return f.updateFocus(), false
		case "down":
			f.focus = (f.focus + 1) % len(f.inputs)
			return f.updateFocus(), false
		case "shift+tab", "up":
			f.focus--
			if f.focus < 0 {
				f.focus = len(f.inputs) - 1
			}
			return f.updateFocus(), false
		case "enter":
			return nil, true
		}
	}

	// Update the focused input
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, false
}

func (f *entityForm) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+f.title+" ") + "\n\n")
	for i, field := range f.fields {
		label := fmt.Sprintf("  %-16s", field.Label+":")
		if i == f.focus {
			label = selectedStyle.Render(label)
		}
		b.WriteString(label + " " + f.inputs[i].View() + "\n")
	}
	if f.busy {
		b.WriteString("\n  Saving...")
	}
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render("  "+f.err))
	}
	return boxStyle.Render(b.String())
}
