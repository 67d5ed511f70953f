// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
	"testing"
	"time"
)

func validRecord() TestRecord {
	return TestRecord{
		Time:          "09:45",
		OriginNumber:  "+55 11 4000-1000",
		OriginCarrier: "Vivo",
		DestNumber:    "+55 21 3000-2000",
		DestCarrier:   "Claro",
		CallStatus:    "no audio",
	}
}

func TestTestRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	record := validRecord()
	record.Notes = ""
	if err := record.Validate(); err != nil {
		t.Errorf("notes should be optional: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*TestRecord)
		want   string
	}{
		{"missing time", func(r *TestRecord) { r.Time = " " }, "time is required"},
		{"hour out of range", func(r *TestRecord) { r.Time = "24:00" }, "not HH:MM"},
		{"single digit hour", func(r *TestRecord) { r.Time = "9:45" }, "not HH:MM"},
		{"missing carrier", func(r *TestRecord) { r.DestCarrier = "" }, "destination carrier is required"},
		{"missing status", func(r *TestRecord) { r.CallStatus = "" }, "call status is required"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			record := validRecord()
			test.mutate(&record)
			err := record.Validate()
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, test.want)
			}
		})
	}
}

func TestOccurrenceRowLayout(t *testing.T) {
	occurrence := Occurrence{
		ID:          "occ-1",
		Timestamp:   time.Date(2026, 3, 4, 12, 30, 0, 0, time.UTC),
		Title:       "Calls drop after 30s",
		AuthorEmail: "agent@example.org",
		Status:      OccurrenceStatusOpen,
		Role:        RoleMunicipalAgent,
		Region:      "Campinas",
		Tests:       []TestRecord{validRecord()},
	}
	row, err := occurrence.Row()
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if len(row) != len(OccurrenceColumns) {
		t.Fatalf("row has %d cells, layout has %d columns", len(row), len(OccurrenceColumns))
	}
	if row[9] != "[]" {
		t.Errorf("empty attachment list encoded as %q, want []", row[9])
	}

	parsed, err := OccurrenceFromRow(row)
	if err != nil {
		t.Fatalf("OccurrenceFromRow: %v", err)
	}
	if parsed.ID != "occ-1" || !parsed.Timestamp.Equal(occurrence.Timestamp) {
		t.Errorf("header mismatch: %+v", parsed)
	}
	if len(parsed.Tests) != 1 || parsed.Tests[0] != validRecord() {
		t.Errorf("test list mismatch: %+v", parsed.Tests)
	}
}

func TestOccurrenceFromRowRejectsCorruptTestList(t *testing.T) {
	row := []string{"occ-2", "", "t", "a@example.org", "open", "partner", "", "", "{not json"}
	if _, err := OccurrenceFromRow(row); err == nil {
		t.Fatal("expected error for corrupt test list")
	}
}

func TestProfileFromShortRow(t *testing.T) {
	// Spreadsheet stores drop trailing empty cells.
	profile := ProfileFromRow([]string{" Agent@Example.org ", "Ana Souza", "ana", "Municipal-Agent", "APPROVED"})
	if profile.Email != "Agent@Example.org" {
		t.Errorf("Email = %q", profile.Email)
	}
	if profile.Role != RoleMunicipalAgent {
		t.Errorf("Role = %q, want %q", profile.Role, RoleMunicipalAgent)
	}
	if !profile.Approved() {
		t.Errorf("Status = %q, want approved", profile.Status)
	}
	if profile.Company != "" {
		t.Errorf("Company = %q, want empty", profile.Company)
	}
}

func TestParseStatusNeverGrantsOnTypos(t *testing.T) {
	for _, value := range []string{"aproved", "", "yes"} {
		if status := ParseStatus(value); status != StatusUnknown {
			t.Errorf("ParseStatus(%q) = %q, want unknown", value, status)
		}
	}
}

func TestRoleRules(t *testing.T) {
	if RoleAdmin.Requestable() {
		t.Error("admin must not be requestable")
	}
	if !RolePartner.Requestable() || !RolePartner.RequiresCompany() {
		t.Error("partner is requestable and requires a company")
	}
	if RoleMunicipalAgent.RequiresCompany() {
		t.Error("municipal agents do not require a company")
	}
}
