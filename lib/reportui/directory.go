// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/fieldreport/lib/dispatch"
	"github.com/bureau-foundation/fieldreport/lib/navigation"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/tui"
)

// assignableRoles is the order the role key cycles through.
var assignableRoles = []schema.Role{schema.RoleMunicipalAgent, schema.RolePartner, schema.RoleAdmin}

// directoryScreen is the administrator's view of the Users table.
type directoryScreen struct {
	users   []schema.UserProfile
	visible []int // indices into users that pass the filter

	filter    textinput.Model
	filtering bool

	// cursor indexes visible.
	cursor int

	loading bool
	busy    bool
}

func newDirectoryScreen() *directoryScreen {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter"
	return &directoryScreen{filter: filter, loading: true}
}

// searchText is what the filter matches a user against.
func searchText(user schema.UserProfile) string {
	return strings.Join([]string{
		user.Email, user.DisplayName, user.Username,
		string(user.Role), string(user.Status), user.Company,
	}, " ")
}

func (screen *directoryScreen) applyFilter() {
	selected := screen.selected()
	texts := make([]string, len(screen.users))
	for index, user := range screen.users {
		texts[index] = searchText(user)
	}
	screen.visible = tui.FilterIndices(texts, screen.filter.Value())
	screen.cursor = 0
	if selected != nil {
		for position, index := range screen.visible {
			if schema.SameEmail(screen.users[index].Email, selected.Email) {
				screen.cursor = position
				break
			}
		}
	}
}

// selected returns the user under the cursor, or nil.
func (screen *directoryScreen) selected() *schema.UserProfile {
	if screen.cursor < 0 || screen.cursor >= len(screen.visible) {
		return nil
	}
	user := screen.users[screen.visible[screen.cursor]]
	return &user
}

func (screen *directoryScreen) moveCursor(delta int) {
	screen.cursor += delta
	if screen.cursor >= len(screen.visible) {
		screen.cursor = len(screen.visible) - 1
	}
	if screen.cursor < 0 {
		screen.cursor = 0
	}
}

// nextRole returns the role after role in assignableRoles.
func nextRole(role schema.Role) schema.Role {
	for index, candidate := range assignableRoles {
		if candidate == role {
			return assignableRoles[(index+1)%len(assignableRoles)]
		}
	}
	return assignableRoles[0]
}

// loadUsers fetches the whole directory in the background.
func (model *Model) loadUsers() {
	screen := model.directory
	screen.loading = true
	dispatch.Run(model.dispatcher, "list users",
		func(ctx context.Context) ([]schema.UserProfile, error) {
			return model.admin.ListUsers(ctx)
		},
		func(result dispatch.Result[[]schema.UserProfile]) {
			if model.directory != screen {
				return
			}
			screen.loading = false
			if result.Err != nil {
				model.act(result.Err)
				return
			}
			screen.users = result.Value
			screen.applyFilter()
		})
}

// mutate runs an admin change for the selected user and reloads the
// directory afterwards.
func (model *Model) mutate(name string, change func(context.Context, schema.UserProfile) error) {
	screen := model.directory
	user := screen.selected()
	if user == nil {
		model.act(errors.New("no user selected"))
		return
	}
	if screen.busy {
		return
	}
	screen.busy = true
	target := *user
	dispatch.Run(model.dispatcher, name,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, change(ctx, target)
		},
		func(result dispatch.Result[struct{}]) {
			if model.directory != screen {
				return
			}
			screen.busy = false
			if result.Err != nil {
				model.act(fmt.Errorf("%s %s: %w", name, target.Email, result.Err))
				return
			}
			model.act(nil)
			model.logger.Info("directory updated", "action", name, "email", target.Email)
			model.loadUsers()
		})
}

func (model *Model) setStatus(status schema.Status) {
	model.mutate("set status "+string(status), func(ctx context.Context, user schema.UserProfile) error {
		return model.admin.Approve(ctx, user.Email, status)
	})
}

func (model *Model) handleDirectoryKeys(message tea.KeyMsg) tea.Cmd {
	screen := model.directory
	if screen == nil {
		return nil
	}
	if screen.filtering {
		switch message.Type {
		case tea.KeyEsc:
			screen.filtering = false
			screen.filter.Blur()
			screen.filter.Reset()
			screen.applyFilter()
		case tea.KeyEnter:
			screen.filtering = false
			screen.filter.Blur()
		default:
			var cmd tea.Cmd
			screen.filter, cmd = screen.filter.Update(message)
			screen.applyFilter()
			return cmd
		}
		return nil
	}

	switch {
	case key.Matches(message, model.keys.Back):
		model.act(model.controller.Navigate(navigation.ScreenHome))
	case key.Matches(message, model.keys.Filter):
		screen.filtering = true
		return screen.filter.Focus()
	case key.Matches(message, model.keys.Up):
		screen.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		screen.moveCursor(1)
	case key.Matches(message, model.keys.Reload):
		model.loadUsers()
	case key.Matches(message, model.keys.Logout):
		model.act(model.controller.Logout())
	case key.Matches(message, model.keys.Approve):
		model.setStatus(schema.StatusApproved)
	case key.Matches(message, model.keys.Reject):
		model.setStatus(schema.StatusRejected)
	case key.Matches(message, model.keys.MarkPending):
		model.setStatus(schema.StatusPending)
	case key.Matches(message, model.keys.CycleRole):
		model.mutate("change role", func(ctx context.Context, user schema.UserProfile) error {
			return model.admin.UpdateRole(ctx, user.Email, nextRole(user.Role), nil)
		})
	}
	return nil
}
