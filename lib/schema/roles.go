// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "strings"

// Role is the authorization role stored for an account.
type Role string

const (
	RoleAdmin          Role = "admin"
	RolePartner        Role = "partner"
	RoleMunicipalAgent Role = "municipal-agent"

	// RoleUnregistered is reported for accounts with no directory row.
	RoleUnregistered Role = "unregistered-requester"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleAdmin, RolePartner, RoleMunicipalAgent, RoleUnregistered}

// ParseRole parses a stored role string. Matching ignores case and
// surrounding whitespace.
func ParseRole(value string) (Role, bool) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, role := range Roles {
		if role == normalized {
			return role, true
		}
	}
	return "", false
}

// Requestable reports whether a user may ask for this role through an
// access request. Admin is granted only by another admin.
func (role Role) Requestable() bool {
	return role == RolePartner || role == RoleMunicipalAgent
}

// RequiresCompany reports whether accounts with this role must name
// the company they work for.
func (role Role) RequiresCompany() bool {
	return role == RolePartner
}

// Status is the approval state of an account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusUnknown  Status = "unknown"

	// StatusUnregistered is reported for accounts with no directory row.
	StatusUnregistered Status = "unregistered"
)

// ParseStatus parses a stored status string. Anything unrecognized is
// StatusUnknown, so a typo in the directory never grants access.
func ParseStatus(value string) Status {
	switch status := Status(strings.ToLower(strings.TrimSpace(value))); status {
	case StatusPending, StatusApproved, StatusRejected, StatusUnregistered:
		return status
	default:
		return StatusUnknown
	}
}
