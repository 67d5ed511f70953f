// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// Theme defines the color palette for fieldreport's terminal UI. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Account status colors.
	StatusApproved lipgloss.Color
	StatusPending  lipgloss.Color
	StatusRejected lipgloss.Color

	// Role badges.
	RoleAdmin     lipgloss.Color
	RolePartner   lipgloss.Color
	RoleMunicipal lipgloss.Color

	// Status bar severities.
	Warning lipgloss.Color
	Error   lipgloss.Color
	Notice  lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Filter match highlighting.
	MatchBackground lipgloss.Color
}

// StatusColor returns the color for an account status. Unknown and
// unregistered statuses render faint.
func (theme Theme) StatusColor(status schema.Status) lipgloss.Color {
	switch status {
	case schema.StatusApproved:
		return theme.StatusApproved
	case schema.StatusPending:
		return theme.StatusPending
	case schema.StatusRejected:
		return theme.StatusRejected
	default:
		return theme.FaintText
	}
}

// RoleColor returns the badge color for a role.
func (theme Theme) RoleColor(role schema.Role) lipgloss.Color {
	switch role {
	case schema.RoleAdmin:
		return theme.RoleAdmin
	case schema.RolePartner:
		return theme.RolePartner
	case schema.RoleMunicipalAgent:
		return theme.RoleMunicipal
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusApproved: lipgloss.Color("114"), // green
	StatusPending:  lipgloss.Color("220"), // amber
	StatusRejected: lipgloss.Color("196"), // red

	RoleAdmin:     lipgloss.Color("141"), // light purple
	RolePartner:   lipgloss.Color("75"),  // blue
	RoleMunicipal: lipgloss.Color("108"), // sage

	Warning: lipgloss.Color("220"),
	Error:   lipgloss.Color("196"),
	Notice:  lipgloss.Color("114"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	MatchBackground: lipgloss.Color("58"), // dark amber
}
