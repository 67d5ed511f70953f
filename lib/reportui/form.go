// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// field is one labelled text input.
type field struct {
	label string
	input textinput.Model
}

// form is an ordered set of fields with one focused at a time.
type form struct {
	fields []field
	focus  int
}

func newForm(labels []string, placeholders map[string]string) *form {
	result := &form{}
	for _, label := range labels {
		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = 256
		input.Placeholder = placeholders[label]
		result.fields = append(result.fields, field{label: label, input: input})
	}
	result.fields[0].input.Focus()
	return result
}

func (form *form) setFocus(index int) {
	if index < 0 {
		index = len(form.fields) - 1
	}
	if index >= len(form.fields) {
		index = 0
	}
	form.fields[form.focus].input.Blur()
	form.focus = index
	form.fields[form.focus].input.Focus()
}

func (form *form) next()     { form.setFocus(form.focus + 1) }
func (form *form) previous() { form.setFocus(form.focus - 1) }

// update sends message to the focused input.
func (form *form) update(message tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	form.fields[form.focus].input, cmd = form.fields[form.focus].input.Update(message)
	return cmd
}

// value returns the trimmed text of the field at index.
func (form *form) value(index int) string {
	return strings.TrimSpace(form.fields[index].input.Value())
}

func (form *form) set(index int, value string) {
	form.fields[index].input.SetValue(value)
}

// clear empties the fields in [from, to).
func (form *form) clear(from, to int) {
	for index := from; index < to; index++ {
		form.fields[index].input.Reset()
	}
}
