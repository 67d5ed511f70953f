// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "strings"

// UserColumns is the column layout of the Users table.
var UserColumns = []string{"email", "full_name", "username", "role", "status", "company"}

// UserEmailColumn is the key column of the Users table.
const UserEmailColumn = 0

// UserProfile is an account's directory entry as resolved at one
// point in time. Administrators edit the directory out-of-band, so a
// profile is never cached beyond the decision it was fetched for.
type UserProfile struct {
	Email       string
	DisplayName string
	Username    string
	Role        Role
	Status      Status
	Company     string
}

// Approved reports whether the profile grants access to the app.
func (profile UserProfile) Approved() bool {
	return profile.Status == StatusApproved
}

// Registered reports whether the profile came from a directory row.
func (profile UserProfile) Registered() bool {
	return profile.Status != StatusUnregistered
}

// Row returns the Users row for the profile.
func (profile UserProfile) Row() []string {
	return []string{
		profile.Email,
		profile.DisplayName,
		profile.Username,
		string(profile.Role),
		string(profile.Status),
		profile.Company,
	}
}

// ProfileFromRow parses a Users row. Unknown role strings are kept
// verbatim; unknown statuses become StatusUnknown.
func ProfileFromRow(row []string) UserProfile {
	role := Role(strings.TrimSpace(cell(row, 3)))
	if parsed, ok := ParseRole(string(role)); ok {
		role = parsed
	}
	return UserProfile{
		Email:       strings.TrimSpace(cell(row, 0)),
		DisplayName: cell(row, 1),
		Username:    cell(row, 2),
		Role:        role,
		Status:      ParseStatus(cell(row, 4)),
		Company:     cell(row, 5),
	}
}

// UnregisteredProfile is the profile reported for an account with no
// directory row.
func UnregisteredProfile(email string) UserProfile {
	return UserProfile{
		Email:  email,
		Role:   RoleUnregistered,
		Status: StatusUnregistered,
	}
}

// AccessRequest asks an administrator to admit an account with a
// given role.
type AccessRequest struct {
	Email    string
	FullName string
	Username string
	Role     Role
	Company  string
	Status   Status
}

// Profile returns the directory entry the request creates. A request
// without a status is pending.
func (request AccessRequest) Profile() UserProfile {
	status := request.Status
	if status == "" {
		status = StatusPending
	}
	return UserProfile{
		Email:       strings.TrimSpace(request.Email),
		DisplayName: strings.TrimSpace(request.FullName),
		Username:    strings.TrimSpace(request.Username),
		Role:        request.Role,
		Status:      status,
		Company:     strings.TrimSpace(request.Company),
	}
}

// SameEmail compares account emails the way the directory does:
// case-insensitively, ignoring surrounding whitespace.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// cell returns row[index], or "" when the row is short.
func cell(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}
