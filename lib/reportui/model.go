// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/fieldreport/lib/dispatch"
	"github.com/bureau-foundation/fieldreport/lib/navigation"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/submission"
	"github.com/bureau-foundation/fieldreport/lib/tui"
)

// Admin is the part of the access resolver the directory screen uses.
type Admin interface {
	ListUsers(ctx context.Context, statuses ...schema.Status) ([]schema.UserProfile, error)
	Approve(ctx context.Context, email string, status schema.Status) error
	UpdateRole(ctx context.Context, email string, role schema.Role, company *string) error
}

// Submitter validates and submits occurrences.
type Submitter interface {
	Policy() submission.Policy
	Validate(snapshot submission.Snapshot, author schema.UserProfile) error
	Submit(ctx context.Context, snapshot submission.Snapshot, author schema.UserProfile) (schema.SubmissionResult, error)
}

// Config wires a Model.
type Config struct {
	Controller *navigation.Controller
	Dispatcher *dispatch.Dispatcher
	Admin      Admin
	Submitter  Submitter

	// Theme defaults to tui.DefaultTheme and Keys to DefaultKeyMap.
	Theme  *tui.Theme
	Keys   *KeyMap
	Logger *slog.Logger
}

// startMsg asks the model to restore the cached session.
type startMsg struct{}

// statusLine is the log record currently shown in the footer.
type statusLine struct {
	text  string
	level slog.Level
	seq   int
}

// Model is the bubbletea model for the whole app. It is used through a
// pointer and must only be touched from the bubbletea goroutine.
type Model struct {
	controller *navigation.Controller
	dispatcher *dispatch.Dispatcher
	admin      Admin
	submitter  Submitter
	theme      tui.Theme
	keys       KeyMap
	logger     *slog.Logger

	width  int
	height int

	// view is the controller view the per-screen state below was
	// built for.
	view navigation.View

	// err is the most recent failure of a user action that did not
	// change the view, such as a validation error.
	err error

	// result is the outcome of the last submission, shown on Home.
	result *schema.SubmissionResult

	status     statusLine
	statusSeqs int

	request    *form
	occurrence *occurrenceScreen
	directory  *directoryScreen

	submissions dispatch.Flows
}

// New returns a model. The controller must be in its initial state.
func New(config Config) *Model {
	model := &Model{
		controller: config.Controller,
		dispatcher: config.Dispatcher,
		admin:      config.Admin,
		submitter:  config.Submitter,
		theme:      tui.DefaultTheme,
		keys:       DefaultKeyMap,
		logger:     config.Logger,
	}
	if config.Theme != nil {
		model.theme = *config.Theme
	}
	if config.Keys != nil {
		model.keys = *config.Keys
	}
	if model.logger == nil {
		model.logger = slog.New(slog.DiscardHandler)
	}
	model.view = model.controller.View()
	return model
}

// Init starts listening for completions and restores the session.
func (model *Model) Init() tea.Cmd {
	return tea.Batch(
		model.dispatcher.Listen(),
		func() tea.Msg { return startMsg{} },
	)
}

// Update handles one message.
func (model *Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	var commands []tea.Cmd
	switch message := message.(type) {
	case startMsg:
		model.report(model.controller.Start())

	case dispatch.CompletionMsg:
		message.Run()
		commands = append(commands, model.dispatcher.Listen())

	case tui.LogRecordMsg:
		model.statusSeqs++
		model.status = statusLine{text: message.Summary, level: message.Level, seq: model.statusSeqs}
		commands = append(commands, tui.FadeAfterDelay(model.statusSeqs))

	case tui.LogFadeMsg:
		if message.Seq == model.status.seq {
			model.status = statusLine{}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			return model, tea.Quit
		}
		commands = append(commands, model.handleKey(message))
	}
	model.sync()
	return model, tea.Batch(commands...)
}

// handleKey routes a key press to the current screen.
func (model *Model) handleKey(message tea.KeyMsg) tea.Cmd {
	view := model.controller.View()
	switch view.State {
	case navigation.Unauthenticated:
		if key.Matches(message, model.keys.Login) {
			model.act(model.controller.Login())
		}
	case navigation.Authenticating:
		if key.Matches(message, model.keys.Logout) || key.Matches(message, model.keys.Back) {
			model.act(model.controller.Logout())
		}
	case navigation.Unregistered:
		return model.handleRequestKeys(message)
	case navigation.Pending:
		switch {
		case key.Matches(message, model.keys.Recheck):
			model.act(model.controller.Recheck())
		case key.Matches(message, model.keys.Logout):
			model.act(model.controller.Logout())
		}
	case navigation.Approved:
		switch view.Screen {
		case navigation.ScreenHome:
			model.handleHomeKeys(message)
		case navigation.ScreenNewOccurrence:
			return model.handleOccurrenceKeys(message)
		case navigation.ScreenDirectory:
			return model.handleDirectoryKeys(message)
		}
	}
	return nil
}

func (model *Model) handleHomeKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.NewOccurrence):
		model.act(model.controller.Navigate(navigation.ScreenNewOccurrence))
	case key.Matches(message, model.keys.Directory):
		model.act(model.controller.Navigate(navigation.ScreenDirectory))
	case key.Matches(message, model.keys.Recheck):
		model.act(model.controller.Recheck())
	case key.Matches(message, model.keys.Logout):
		model.act(model.controller.Logout())
	}
}

// act records the outcome of a user action. A nil err clears the
// previous failure.
func (model *Model) act(err error) {
	model.err = err
	if err != nil {
		model.logger.Debug("action rejected", "state", model.controller.View().String(), "error", err)
	}
}

// report records err only when it is non-nil.
func (model *Model) report(err error) {
	if err != nil {
		model.act(err)
	}
}

// sync brings per-screen state in line with the controller's view.
// Transient states keep everything, so a draft survives the profile
// re-check that precedes every screen change.
func (model *Model) sync() {
	current := model.controller.View()
	if current == model.view {
		return
	}
	model.view = current
	if current.State == navigation.ResolvingProfile || current.State == navigation.Authenticating {
		return
	}

	if current.Screen != navigation.ScreenNewOccurrence && model.occurrence != nil {
		model.occurrence = nil
		model.submissions.Invalidate()
	}
	if current.Screen != navigation.ScreenDirectory {
		model.directory = nil
	}
	if current.State != navigation.Unregistered {
		model.request = nil
	}
	if current.State != navigation.Approved {
		model.result = nil
	}

	switch {
	case current.State == navigation.Unregistered && model.request == nil:
		model.request = newRequestForm()
	case current.Screen == navigation.ScreenNewOccurrence && model.occurrence == nil:
		model.occurrence = newOccurrenceScreen()
		model.result = nil
	case current.Screen == navigation.ScreenDirectory && model.directory == nil:
		model.directory = newDirectoryScreen()
		model.loadUsers()
	}
}
