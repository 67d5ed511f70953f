// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// Resolver reads and mutates the Users table.
type Resolver struct {
	store  remotestore.Store
	table  string
	logger *slog.Logger
}

// NewResolver returns a resolver over the named Users table.
func NewResolver(store remotestore.Store, table string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{store: store, table: table, logger: logger}
}

// storeFailure classifies a store error for an operation that is not
// itself a profile lookup.
func storeFailure(err error, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	if errors.Is(err, remotestore.ErrNoSuchTable) {
		return failure.RemoteStructure("%s: %w", message, err)
	}
	return failure.RemoteTransient("%s: %w", message, err)
}

// find scans the table for email. The second result is false when no
// row matches.
func (resolver *Resolver) find(ctx context.Context, email string) (schema.UserProfile, bool, error) {
	rows, err := resolver.store.Scan(ctx, resolver.table)
	if err != nil {
		return schema.UserProfile{}, false, err
	}
	for _, row := range rows {
		profile := schema.ProfileFromRow(row)
		if schema.SameEmail(profile.Email, email) {
			return profile, true, nil
		}
	}
	return schema.UserProfile{}, false, nil
}

// ResolveProfile returns the directory entry for email. An account
// without a row is reported as unregistered; any store failure is a
// profile_lookup failure.
func (resolver *Resolver) ResolveProfile(ctx context.Context, email string) (schema.UserProfile, error) {
	profile, found, err := resolver.find(ctx, email)
	if err != nil {
		return schema.UserProfile{}, failure.ProfileLookup("looking up %s: %w", email, err)
	}
	if !found {
		resolver.logger.Debug("no directory entry", "email", email)
		return schema.UnregisteredProfile(email), nil
	}
	resolver.logger.Debug("profile resolved", "email", email, "role", profile.Role, "status", profile.Status)
	return profile, nil
}

// ValidateRequest checks an access request without touching the
// store. Every problem is reported.
func ValidateRequest(request schema.AccessRequest) error {
	var problems []string
	if strings.TrimSpace(request.Email) == "" {
		problems = append(problems, "email is required")
	}
	if strings.TrimSpace(request.FullName) == "" {
		problems = append(problems, "full name is required")
	}
	if strings.TrimSpace(request.Username) == "" {
		problems = append(problems, "username is required")
	}
	switch {
	case request.Role == "":
		problems = append(problems, "role is required")
	case !request.Role.Requestable():
		problems = append(problems, fmt.Sprintf("role %q cannot be requested", request.Role))
	case request.Role.RequiresCompany() && strings.TrimSpace(request.Company) == "":
		problems = append(problems, fmt.Sprintf("company is required for the %s role", request.Role))
	}
	if len(problems) > 0 {
		return failure.Validation("%s", strings.Join(problems, "; "))
	}
	return nil
}

// SubmitAccessRequest records a pending request and returns a message
// for the user.
//
// A pending entry for the same email is left alone and reported as
// already pending. A rejected entry is reopened as pending with the
// new details. An approved entry is a validation failure: there is
// nothing to request.
func (resolver *Resolver) SubmitAccessRequest(ctx context.Context, request schema.AccessRequest) (string, error) {
	if err := ValidateRequest(request); err != nil {
		return "", err
	}
	request.Status = schema.StatusPending
	profile := request.Profile()

	existing, found, err := resolver.find(ctx, profile.Email)
	if err != nil {
		return "", storeFailure(err, "checking for an existing request")
	}
	if found {
		switch existing.Status {
		case schema.StatusPending:
			return "Your access request is already pending review.", nil
		case schema.StatusApproved:
			return "", failure.Validation("%s already has approved access", profile.Email)
		}
		if _, err := resolver.store.Update(ctx, resolver.table, schema.UserEmailColumn, profile.Email, profile.Row()); err != nil {
			return "", storeFailure(err, "reopening access request")
		}
		resolver.logger.Info("access request reopened", "email", profile.Email, "role", profile.Role, "previous_status", existing.Status)
		return "Your access request was resubmitted and is pending review.", nil
	}

	if err := resolver.store.Append(ctx, resolver.table, profile.Row()); err != nil {
		return "", storeFailure(err, "recording access request")
	}
	resolver.logger.Info("access request recorded", "email", profile.Email, "role", profile.Role)
	return "Your access request was sent and is pending review.", nil
}

// Approve sets the status of email's entry. Setting the status it
// already has changes nothing.
func (resolver *Resolver) Approve(ctx context.Context, email string, status schema.Status) error {
	switch status {
	case schema.StatusApproved, schema.StatusRejected, schema.StatusPending:
	default:
		return failure.Validation("status %q cannot be assigned", status)
	}
	return resolver.mutate(ctx, email, func(profile *schema.UserProfile) error {
		profile.Status = status
		return nil
	})
}

// UpdateRole sets the role of email's entry, and its company when
// company is non-nil.
func (resolver *Resolver) UpdateRole(ctx context.Context, email string, role schema.Role, company *string) error {
	if role == schema.RoleUnregistered || !slices.Contains(schema.Roles, role) {
		return failure.Validation("role %q cannot be assigned", role)
	}
	return resolver.mutate(ctx, email, func(profile *schema.UserProfile) error {
		profile.Role = role
		if company != nil {
			profile.Company = strings.TrimSpace(*company)
		}
		if role.RequiresCompany() && profile.Company == "" {
			return failure.Validation("company is required for the %s role", role)
		}
		return nil
	})
}

func (resolver *Resolver) mutate(ctx context.Context, email string, change func(*schema.UserProfile) error) error {
	current, found, err := resolver.find(ctx, email)
	if err != nil {
		return storeFailure(err, "looking up %s", email)
	}
	if !found {
		return failure.Validation("no such user: %s", email)
	}
	updated := current
	if err := change(&updated); err != nil {
		return err
	}
	if updated == current {
		resolver.logger.Debug("directory entry unchanged", "email", email)
		return nil
	}
	if _, err := resolver.store.Update(ctx, resolver.table, schema.UserEmailColumn, current.Email, updated.Row()); err != nil {
		return storeFailure(err, "updating %s", email)
	}
	resolver.logger.Info("directory entry updated",
		"email", current.Email,
		"role", updated.Role,
		"status", updated.Status,
	)
	return nil
}

// ListUsers returns every directory entry, or only those whose status
// is one of statuses.
func (resolver *Resolver) ListUsers(ctx context.Context, statuses ...schema.Status) ([]schema.UserProfile, error) {
	rows, err := resolver.store.Scan(ctx, resolver.table)
	if err != nil {
		return nil, storeFailure(err, "listing users")
	}
	profiles := make([]schema.UserProfile, 0, len(rows))
	for _, row := range rows {
		profile := schema.ProfileFromRow(row)
		if profile.Email == "" {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, profile.Status) {
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}
