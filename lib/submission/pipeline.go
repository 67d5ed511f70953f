// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bureau-foundation/fieldreport/lib/clock"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// Config wires a Pipeline.
type Config struct {
	Store  remotestore.Store
	Tables schema.Tables
	Policy Policy
	Clock  clock.Clock
	Logger *slog.Logger

	// NewID generates occurrence ids. Defaults to random UUIDs.
	NewID func() string
}

// Pipeline submits occurrences. It holds no per-submission state and
// is safe for concurrent use.
type Pipeline struct {
	store  remotestore.Store
	tables schema.Tables
	policy Policy
	clock  clock.Clock
	logger *slog.Logger
	newID  func() string
}

// New returns a pipeline.
func New(config Config) *Pipeline {
	pipeline := &Pipeline{
		store:  config.Store,
		tables: config.Tables,
		policy: config.Policy,
		clock:  config.Clock,
		logger: config.Logger,
		newID:  config.NewID,
	}
	if pipeline.tables == (schema.Tables{}) {
		pipeline.tables = schema.DefaultTables
	}
	if pipeline.clock == nil {
		pipeline.clock = clock.Real()
	}
	if pipeline.logger == nil {
		pipeline.logger = slog.New(slog.DiscardHandler)
	}
	if pipeline.newID == nil {
		pipeline.newID = uuid.NewString
	}
	return pipeline
}

// Policy returns the pipeline's policy.
func (pipeline *Pipeline) Policy() Policy {
	return pipeline.policy
}

// Validate checks snapshot for author without touching the store.
func (pipeline *Pipeline) Validate(snapshot Snapshot, author schema.UserProfile) error {
	return pipeline.policy.Validate(snapshot, author.Role)
}

// Submit writes snapshot as an occurrence authored by author.
func (pipeline *Pipeline) Submit(ctx context.Context, snapshot Snapshot, author schema.UserProfile) (schema.SubmissionResult, error) {
	if err := pipeline.Validate(snapshot, author); err != nil {
		return schema.SubmissionResult{}, err
	}

	occurrence := schema.Occurrence{
		ID:          pipeline.newID(),
		Timestamp:   pipeline.clock.Now(),
		Title:       snapshot.Title,
		AuthorEmail: author.Email,
		Status:      schema.OccurrenceStatusOpen,
		Role:        author.Role,
		Company:     author.Company,
		Region:      snapshot.Region,
		Tests:       snapshot.Records,
		Attachments: snapshot.Attachments,
	}
	header, err := occurrence.Row()
	if err != nil {
		return schema.SubmissionResult{}, fmt.Errorf("encoding occurrence: %w", err)
	}
	logger := pipeline.logger.With("occurrence_id", occurrence.ID, "author", author.Email)

	if err := pipeline.store.Append(ctx, pipeline.tables.Occurrences, header); err != nil {
		return schema.SubmissionResult{}, remoteFailure(err, pipeline.tables.Occurrences, "appending occurrence")
	}

	if len(snapshot.Records) > 0 {
		rows := make([]remotestore.Row, len(snapshot.Records))
		for index, record := range snapshot.Records {
			rows[index] = record.Row(occurrence.ID)
		}
		if err := pipeline.store.Append(ctx, pipeline.tables.Tests, rows...); err != nil {
			logger.Error("occurrence header written without its tests",
				"tests", len(rows),
				"error", err,
			)
			return schema.SubmissionResult{RemoteID: occurrence.ID}, failure.PartialWrite(occurrence.ID,
				"occurrence %s was recorded but its %d tests were not: %w", occurrence.ID, len(rows), err)
		}
	}

	logger.Info("occurrence submitted",
		"tests", len(snapshot.Records),
		"attachments", len(snapshot.Attachments),
	)
	return schema.SubmissionResult{
		Success:  true,
		Message:  fmt.Sprintf("occurrence %s registered", occurrence.ID),
		RemoteID: occurrence.ID,
	}, nil
}

// remoteFailure separates a missing table, which needs an
// administrator, from everything else, which may work on retry.
func remoteFailure(err error, table, action string) error {
	if errors.Is(err, remotestore.ErrNoSuchTable) {
		return failure.RemoteStructure("%s: table %q is missing: %w", action, table, err)
	}
	return failure.RemoteTransient("%s: %w", action, err)
}

// ResultFor renders a Submit error as a result for display.
func ResultFor(err error) schema.SubmissionResult {
	if err == nil {
		return schema.SubmissionResult{Success: true}
	}
	result := schema.SubmissionResult{Message: failure.UserMessage(err)}
	var categorized *failure.Error
	if errors.As(err, &categorized) {
		result.RemoteID = categorized.OccurrenceID
	}
	return result
}
