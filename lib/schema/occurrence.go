// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tables names the three logical tables in the remote store. The
// names are deployment configuration; [DefaultTables] matches the
// layout documented in the package comment.
type Tables struct {
	Occurrences string `yaml:"occurrences"`
	Tests       string `yaml:"tests"`
	Users       string `yaml:"users"`
}

// DefaultTables is the standard table naming.
var DefaultTables = Tables{
	Occurrences: "Occurrences",
	Tests:       "Tests",
	Users:       "Users",
}

// OccurrenceColumns is the column layout of the Occurrences table.
var OccurrenceColumns = []string{
	"id", "timestamp", "title", "author_email", "status",
	"role", "company", "region",
	"tests", "attachments",
}

// TestColumns is the column layout of the Tests table.
var TestColumns = []string{
	"occurrence_id", "time", "origin_number", "origin_carrier",
	"dest_number", "dest_carrier", "status", "notes",
}

// TimestampLayout is how occurrence timestamps are written.
const TimestampLayout = time.RFC3339

// OccurrenceStatusOpen is the status of a freshly submitted report.
const OccurrenceStatusOpen = "open"

// TestRecord is one call test performed while documenting an
// occurrence. Every field except Notes is mandatory.
type TestRecord struct {
	Time          string `json:"time" yaml:"time"`
	OriginNumber  string `json:"origin_number" yaml:"origin_number"`
	OriginCarrier string `json:"origin_carrier" yaml:"origin_carrier"`
	DestNumber    string `json:"dest_number" yaml:"dest_number"`
	DestCarrier   string `json:"dest_carrier" yaml:"dest_carrier"`
	CallStatus    string `json:"status" yaml:"status"`
	Notes         string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Validate checks that every mandatory field is present and that Time
// is a 24-hour HH:MM clock reading. All problems are reported together.
func (record TestRecord) Validate() error {
	var problems []error
	required := []struct {
		name  string
		value string
	}{
		{"origin number", record.OriginNumber},
		{"origin carrier", record.OriginCarrier},
		{"destination number", record.DestNumber},
		{"destination carrier", record.DestCarrier},
		{"call status", record.CallStatus},
	}
	if strings.TrimSpace(record.Time) == "" {
		problems = append(problems, errors.New("time is required"))
	} else if !ValidClockTime(record.Time) {
		problems = append(problems, fmt.Errorf("time %q is not HH:MM", record.Time))
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			problems = append(problems, fmt.Errorf("%s is required", field.name))
		}
	}
	return errors.Join(problems...)
}

// ValidClockTime reports whether value is a 24-hour HH:MM time.
func ValidClockTime(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil
}

// Row returns the Tests row for the record under occurrenceID.
func (record TestRecord) Row(occurrenceID string) []string {
	return []string{
		occurrenceID,
		record.Time,
		record.OriginNumber,
		record.OriginCarrier,
		record.DestNumber,
		record.DestCarrier,
		record.CallStatus,
		record.Notes,
	}
}

// TestRecordFromRow parses a Tests row into its occurrence id and
// record.
func TestRecordFromRow(row []string) (string, TestRecord) {
	return cell(row, 0), TestRecord{
		Time:          cell(row, 1),
		OriginNumber:  cell(row, 2),
		OriginCarrier: cell(row, 3),
		DestNumber:    cell(row, 4),
		DestCarrier:   cell(row, 5),
		CallStatus:    cell(row, 6),
		Notes:         cell(row, 7),
	}
}

// Attachment describes a file referenced by an occurrence. The file
// itself is not uploaded; the digest lets a reviewer confirm that the
// copy they receive is the one the reporter attached.
type Attachment struct {
	Name   string `json:"name" yaml:"name"`
	Size   int64  `json:"size" yaml:"size"`
	Digest string `json:"blake3" yaml:"blake3"`
}

// Occurrence is the header of a submitted report.
type Occurrence struct {
	ID          string
	Timestamp   time.Time
	Title       string
	AuthorEmail string
	Status      string
	Role        Role
	Company     string
	Region      string
	Tests       []TestRecord
	Attachments []Attachment
}

// Row returns the Occurrences row. The test and attachment lists are
// JSON-encoded into their cells; empty lists encode as "[]".
func (occurrence Occurrence) Row() ([]string, error) {
	tests := occurrence.Tests
	if tests == nil {
		tests = []TestRecord{}
	}
	testsJSON, err := json.Marshal(tests)
	if err != nil {
		return nil, fmt.Errorf("encoding test list: %w", err)
	}
	attachments := occurrence.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("encoding attachment list: %w", err)
	}
	return []string{
		occurrence.ID,
		occurrence.Timestamp.UTC().Format(TimestampLayout),
		occurrence.Title,
		occurrence.AuthorEmail,
		occurrence.Status,
		string(occurrence.Role),
		occurrence.Company,
		occurrence.Region,
		string(testsJSON),
		string(attachmentsJSON),
	}, nil
}

// OccurrenceFromRow parses an Occurrences row.
func OccurrenceFromRow(row []string) (Occurrence, error) {
	occurrence := Occurrence{
		ID:          cell(row, 0),
		Title:       cell(row, 2),
		AuthorEmail: cell(row, 3),
		Status:      cell(row, 4),
		Role:        Role(cell(row, 5)),
		Company:     cell(row, 6),
		Region:      cell(row, 7),
	}
	if raw := cell(row, 1); raw != "" {
		timestamp, err := time.Parse(TimestampLayout, raw)
		if err != nil {
			return Occurrence{}, fmt.Errorf("occurrence %s: parsing timestamp: %w", occurrence.ID, err)
		}
		occurrence.Timestamp = timestamp
	}
	if raw := cell(row, 8); raw != "" {
		if err := json.Unmarshal([]byte(raw), &occurrence.Tests); err != nil {
			return Occurrence{}, fmt.Errorf("occurrence %s: decoding test list: %w", occurrence.ID, err)
		}
	}
	if raw := cell(row, 9); raw != "" {
		if err := json.Unmarshal([]byte(raw), &occurrence.Attachments); err != nil {
			return Occurrence{}, fmt.Errorf("occurrence %s: decoding attachment list: %w", occurrence.ID, err)
		}
	}
	return occurrence, nil
}

// SubmissionResult is the outcome of one submission attempt, shaped
// for display.
type SubmissionResult struct {
	Success  bool
	Message  string
	RemoteID string
}
