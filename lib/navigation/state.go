// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigation

import (
	"fmt"

	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// State is the controller's position in the session lifecycle.
type State int

const (
	// Unauthenticated means there is no usable credential. The login
	// screen is shown.
	Unauthenticated State = iota

	// Authenticating means an interactive login is in progress.
	Authenticating

	// ResolvingProfile means the identity and directory entry are
	// being looked up.
	ResolvingProfile

	// Unregistered means the account has no directory entry, or its
	// request was rejected. The access request form is shown.
	Unregistered

	// Pending means the account is waiting for an administrator.
	Pending

	// Approved means the account may use the app with its role.
	Approved
)

func (state State) String() string {
	switch state {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case ResolvingProfile:
		return "resolving-profile"
	case Unregistered:
		return "unregistered"
	case Pending:
		return "pending"
	case Approved:
		return "approved"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// Screen is the page shown inside the Approved state.
type Screen int

const (
	// ScreenNone is the screen of every state except Approved.
	ScreenNone Screen = iota

	// ScreenHome lists what the user can do.
	ScreenHome

	// ScreenNewOccurrence is the occurrence form. Leaving it discards
	// the draft.
	ScreenNewOccurrence

	// ScreenDirectory is the administrator's user directory.
	ScreenDirectory
)

func (screen Screen) String() string {
	switch screen {
	case ScreenNone:
		return "none"
	case ScreenHome:
		return "home"
	case ScreenNewOccurrence:
		return "new-occurrence"
	case ScreenDirectory:
		return "directory"
	default:
		return fmt.Sprintf("Screen(%d)", int(screen))
	}
}

// Allows reports whether role may open screen.
func (screen Screen) Allows(role schema.Role) bool {
	switch screen {
	case ScreenHome, ScreenNewOccurrence:
		return true
	case ScreenDirectory:
		return role == schema.RoleAdmin
	default:
		return false
	}
}

// View is everything the UI needs to pick what to draw.
type View struct {
	State  State
	Role   schema.Role
	Screen Screen
}

func (view View) String() string {
	if view.State == Approved {
		return fmt.Sprintf("approved(%s)/%s", view.Role, view.Screen)
	}
	return view.State.String()
}

// Transition is passed to change listeners.
type Transition struct {
	From View
	To   View
}
