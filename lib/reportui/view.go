// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/navigation"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// defaultWidth is used before the first WindowSizeMsg.
const defaultWidth = 80

// View renders the current screen.
func (model *Model) View() string {
	width := model.width
	if width <= 0 {
		width = defaultWidth
	}

	var body string
	view := model.controller.View()
	switch view.State {
	case navigation.Unauthenticated:
		body = model.viewLogin()
	case navigation.Authenticating:
		body = model.faint("Waiting for sign-in to finish in your browser...")
	case navigation.ResolvingProfile:
		body = model.faint("Checking your access...")
	case navigation.Unregistered:
		body = model.viewRequest()
	case navigation.Pending:
		body = model.viewPending()
	case navigation.Approved:
		switch view.Screen {
		case navigation.ScreenNewOccurrence:
			body = model.viewOccurrence(width)
		case navigation.ScreenDirectory:
			body = model.viewDirectory(width)
		default:
			body = model.viewHome()
		}
	}

	sections := []string{model.viewHeader(width), "", body}
	if problem := model.problem(); problem != "" {
		style := lipgloss.NewStyle().Foreground(model.theme.Error)
		sections = append(sections, "", style.Render(truncate(problem, width)))
	}
	sections = append(sections, "", model.viewFooter(width))
	return strings.Join(sections, "\n")
}

// problem is the failure to show: a rejected action first, then the
// controller's last fallback.
func (model *Model) problem() string {
	if model.err != nil {
		return failure.UserMessage(model.err)
	}
	return failure.UserMessage(model.controller.LastError())
}

func truncate(text string, width int) string {
	if ansi.StringWidth(text) <= width {
		return text
	}
	return ansi.Truncate(text, width-1, "…")
}

func (model *Model) faint(text string) string {
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(text)
}

func (model *Model) viewHeader(width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render("fieldreport")
	view := model.controller.View()
	right := model.faint(view.String())
	if profile := model.controller.Profile(); profile.Email != "" {
		badge := lipgloss.NewStyle().Foreground(model.theme.RoleColor(profile.Role)).Render(string(profile.Role))
		right = profile.Email + " " + badge + " " + right
	}
	gap := width - ansi.StringWidth(title) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + right
	border := lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render(strings.Repeat("─", width))
	return truncate(line, width) + "\n" + border
}

func (model *Model) viewFooter(width int) string {
	if model.status.text != "" {
		color := model.theme.Warning
		if model.status.level >= slog.LevelError {
			color = model.theme.Error
		}
		return lipgloss.NewStyle().Foreground(color).Render(truncate(model.status.text, width))
	}
	var parts []string
	for _, binding := range model.helpBindings() {
		help := binding.Help()
		if help.Key == "" {
			continue
		}
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(truncate(strings.Join(parts, " · "), width))
}

// helpBindings lists the keys that do something right now.
func (model *Model) helpBindings() []key.Binding {
	keys := model.keys
	view := model.controller.View()
	switch view.State {
	case navigation.Unauthenticated:
		return []key.Binding{keys.Login, keys.Quit}
	case navigation.Authenticating:
		cancel := keys.Back
		cancel.SetHelp(cancel.Help().Key, "cancel sign-in")
		return []key.Binding{cancel, keys.Quit}
	case navigation.Unregistered:
		return []key.Binding{keys.NextField, keys.Submit, keys.Recheck, keys.Logout, keys.Quit}
	case navigation.Pending:
		return []key.Binding{keys.Recheck, keys.Logout, keys.Quit}
	case navigation.Approved:
		switch view.Screen {
		case navigation.ScreenNewOccurrence:
			return []key.Binding{keys.NextField, keys.CommitRecord, keys.NextRecord, keys.EditRecord,
				keys.RemoveRecord, keys.Attach, keys.Submit, keys.Back}
		case navigation.ScreenDirectory:
			return []key.Binding{keys.Filter, keys.Approve, keys.Reject, keys.MarkPending,
				keys.CycleRole, keys.Reload, keys.Back}
		default:
			bindings := []key.Binding{keys.NewOccurrence}
			if navigation.ScreenDirectory.Allows(view.Role) {
				bindings = append(bindings, keys.Directory)
			}
			return append(bindings, keys.Recheck, keys.Logout, keys.Quit)
		}
	}
	return []key.Binding{keys.Quit}
}

func (model *Model) viewLogin() string {
	lines := []string{"Sign in with your organization account to report occurrences."}
	if model.controller.CanLogin() {
		lines = append(lines, "", "Press enter to open the sign-in page.")
	}
	return strings.Join(lines, "\n")
}

// renderForm draws labelled fields, highlighting the focused one.
func (model *Model) renderForm(fields *form, from, to int) string {
	labelWidth := 0
	for index := from; index < to; index++ {
		labelWidth = max(labelWidth, ansi.StringWidth(fields.fields[index].label))
	}
	var lines []string
	for index := from; index < to; index++ {
		label := fmt.Sprintf("%-*s", labelWidth, fields.fields[index].label)
		style := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		if index == fields.focus {
			style = lipgloss.NewStyle().Bold(true).Foreground(model.theme.SelectedForeground)
		}
		lines = append(lines, style.Render(label)+"  "+fields.fields[index].input.View())
	}
	return strings.Join(lines, "\n")
}

func (model *Model) viewRequest() string {
	lines := []string{
		"Your account is not registered yet. Request access:",
		"",
	}
	if model.request != nil {
		lines = append(lines, model.renderForm(model.request, 0, len(model.request.fields)))
	}
	if model.controller.RequestInFlight() {
		lines = append(lines, "", model.faint("Sending request..."))
	}
	return strings.Join(lines, "\n")
}

func (model *Model) viewPending() string {
	lines := []string{"Your access request is waiting for an administrator."}
	if notice := model.controller.Notice(); notice != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(model.theme.Notice).Render(notice))
	}
	profile := model.controller.Profile()
	if profile.Status == schema.StatusUnknown {
		lines = append(lines, model.faint("Your directory entry has an unrecognized status."))
	}
	return strings.Join(lines, "\n")
}

func (model *Model) viewHome() string {
	profile := model.controller.Profile()
	lines := []string{fmt.Sprintf("Signed in as %s.", profile.Email)}
	if model.result != nil {
		style := lipgloss.NewStyle().Foreground(model.theme.Notice)
		lines = append(lines, "", style.Render(model.result.Message))
	}
	lines = append(lines, "", "n  report a new occurrence")
	if navigation.ScreenDirectory.Allows(profile.Role) {
		lines = append(lines, "d  manage users")
	}
	return strings.Join(lines, "\n")
}

func (model *Model) viewOccurrence(width int) string {
	screen := model.occurrence
	if screen == nil {
		return ""
	}
	fields := screen.fields
	lines := []string{
		model.renderForm(fields, fieldTitle, firstRecordField),
		"",
	}

	header := "Test"
	if slot, editing := screen.draft.Records.Editing(); editing {
		header = fmt.Sprintf("Test (editing record %d)", slot+1)
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(header))
	lines = append(lines, model.renderForm(fields, firstRecordField, endRecordFields), "")

	minimum := model.recordMinimum()
	count := screen.draft.Records.Len()
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Records (%d, minimum %d)", count, minimum)))
	for index, entry := range screen.draft.Records.Entries() {
		record := entry.Value
		line := fmt.Sprintf("%2d. %s  %s (%s) → %s (%s)  %s",
			index+1, record.Time, record.OriginNumber, record.OriginCarrier,
			record.DestNumber, record.DestCarrier, record.CallStatus)
		line = truncate(line, width)
		if index == screen.selected {
			line = lipgloss.NewStyle().
				Background(model.theme.SelectedBackground).
				Foreground(model.theme.SelectedForeground).
				Render(line)
		}
		lines = append(lines, line)
	}
	if count == 0 {
		lines = append(lines, model.faint("No records yet."))
	}

	lines = append(lines, "", model.renderForm(fields, fieldAttachment, fieldAttachment+1))
	for _, attached := range screen.draft.Attachments() {
		digest := attached.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		lines = append(lines, model.faint(fmt.Sprintf("  %s  %d bytes  %s", attached.Name, attached.Size, digest)))
	}

	if screen.submitting {
		lines = append(lines, "", model.faint("Submitting..."))
	}
	return strings.Join(lines, "\n")
}

// recordMinimum is the number of records the signed-in role needs.
func (model *Model) recordMinimum() int {
	return model.submitter.Policy().Minimum(model.controller.Profile().Role)
}

func (model *Model) viewDirectory(width int) string {
	screen := model.directory
	if screen == nil {
		return ""
	}
	var lines []string
	if screen.filtering || screen.filter.Value() != "" {
		lines = append(lines, screen.filter.View(), "")
	}
	if screen.loading && len(screen.users) == 0 {
		return strings.Join(append(lines, model.faint("Loading users...")), "\n")
	}
	for position, index := range screen.visible {
		user := screen.users[index]
		status := lipgloss.NewStyle().Foreground(model.theme.StatusColor(user.Status)).Render(fmt.Sprintf("%-10s", user.Status))
		role := lipgloss.NewStyle().Foreground(model.theme.RoleColor(user.Role)).Render(fmt.Sprintf("%-22s", user.Role))
		line := fmt.Sprintf("%s %s %s  %s", status, role, user.Email, user.DisplayName)
		if user.Company != "" {
			line += model.faint("  " + user.Company)
		}
		line = truncate(line, width)
		if position == screen.cursor {
			line = lipgloss.NewStyle().Background(model.theme.SelectedBackground).Render(line)
		}
		lines = append(lines, line)
	}
	if len(screen.visible) == 0 {
		lines = append(lines, model.faint("No matching users."))
	}
	if screen.busy {
		lines = append(lines, "", model.faint("Saving..."))
	}
	return strings.Join(lines, "\n")
}
