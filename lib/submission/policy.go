// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package submission

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// Policy holds the per-deployment submission rules.
type Policy struct {
	// DefaultMinimumRecords applies to roles without an entry in
	// MinimumRecords.
	DefaultMinimumRecords int `yaml:"default_minimum_records"`

	// MinimumRecords overrides the minimum per role.
	MinimumRecords map[schema.Role]int `yaml:"minimum_records"`
}

// DefaultPolicy requires two records, three for partners.
func DefaultPolicy() Policy {
	return Policy{
		DefaultMinimumRecords: 2,
		MinimumRecords:        map[schema.Role]int{schema.RolePartner: 3},
	}
}

// Minimum returns the number of records role must include.
func (policy Policy) Minimum(role schema.Role) int {
	if minimum, ok := policy.MinimumRecords[role]; ok {
		return minimum
	}
	return policy.DefaultMinimumRecords
}

// Validate checks snapshot against the policy for role. Every problem
// is reported in one validation failure.
func (policy Policy) Validate(snapshot Snapshot, role schema.Role) error {
	var problems []string
	if strings.TrimSpace(snapshot.Title) == "" {
		problems = append(problems, "title is required")
	}
	if minimum := policy.Minimum(role); len(snapshot.Records) < minimum {
		problems = append(problems, fmt.Sprintf("minimum %d records", minimum))
	}
	for index, record := range snapshot.Records {
		if err := record.Validate(); err != nil {
			message := strings.ReplaceAll(err.Error(), "\n", ", ")
			problems = append(problems, fmt.Sprintf("record %d: %s", index+1, message))
		}
	}
	if len(problems) > 0 {
		return failure.Validation("%s", strings.Join(problems, "; "))
	}
	return nil
}
