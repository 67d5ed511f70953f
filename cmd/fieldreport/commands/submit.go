// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/attachment"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/submission"
)

func (streams IO) submitCommand() *cli.Command {
	var (
		configPath string
		dryRun     bool
	)
	return &cli.Command{
		Name:    "submit",
		Summary: "Submit an occurrence from a YAML draft",
		Description: `Submit an occurrence described in a YAML file.

The draft names a title, an optional region, the call tests and any
attachments (paths relative to the draft). Attachments are described
by name, size and BLAKE3 digest; the files themselves are not
uploaded. The draft is validated against the policy for your role
before anything is written.`,
		Usage: "fieldreport submit <draft.yaml> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := configFlags("submit", &configPath)
			flagSet.BoolVar(&dryRun, "dry-run", false, "validate the draft without submitting it")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Check a draft before sending it",
				Command:     "fieldreport submit --dry-run occurrence.yaml",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("submit takes exactly one draft file")
			}
			draft, err := submission.LoadDraft(args[0])
			if err != nil {
				return err
			}
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				author, err := env.approvedProfile(ctx)
				if err != nil {
					return err
				}
				snapshot := draft.Snapshot()
				if err := env.pipeline.Validate(snapshot, author); err != nil {
					return err
				}
				if dryRun {
					fmt.Fprintf(streams.Stdout, "Draft is valid: %d tests, %d attachments\n",
						len(snapshot.Records), len(snapshot.Attachments))
					return nil
				}
				result, err := env.pipeline.Submit(ctx, snapshot, author)
				if err != nil {
					return errors.New(submission.ResultFor(err).Message)
				}
				fmt.Fprintf(streams.Stdout, "Occurrence %s registered\n", result.RemoteID)
				return nil
			})
		},
	}
}

func (streams IO) verifyCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "verify",
		Summary: "Check a received file against an occurrence's attachments",
		Description: `Check that a file matches one of the attachments recorded on an
occurrence, by size and BLAKE3 digest.

Exits 1 when the file matches none of them.`,
		Usage: "fieldreport verify <occurrence-id> <file> [flags]",
		Flags: func() *pflag.FlagSet { return configFlags("verify", &configPath) },
		Run: func(args []string) error {
			if len(args) != 2 {
				return errors.New("verify takes an occurrence id and a file")
			}
			occurrenceID, path := args[0], args[1]
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if _, err := env.approvedProfile(ctx); err != nil {
					return err
				}
				occurrence, err := env.findOccurrence(ctx, occurrenceID)
				if err != nil {
					return err
				}
				for _, attached := range occurrence.Attachments {
					if err := verifyFile(path, attached); err == nil {
						fmt.Fprintf(streams.Stdout, "%s matches attachment %s\n", path, attached.Name)
						return nil
					} else if !errors.Is(err, attachment.ErrMismatch) {
						return err
					}
				}
				fmt.Fprintf(streams.Stdout, "%s matches none of the %d attachments of %s\n",
					path, len(occurrence.Attachments), occurrenceID)
				return &cli.ExitError{Code: 1}
			})
		},
	}
}

func verifyFile(path string, attached schema.Attachment) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return attachment.Verify(file, attached)
}

// findOccurrence scans the occurrence table for id.
func (env *environment) findOccurrence(ctx context.Context, id string) (schema.Occurrence, error) {
	table := env.config.Store.Tables.Occurrences
	rows, err := env.store.Scan(ctx, table)
	if err != nil {
		return schema.Occurrence{}, fmt.Errorf("reading %s: %w", table, err)
	}
	for _, row := range rows {
		if len(row) == 0 || row[0] != id {
			continue
		}
		return schema.OccurrenceFromRow(row)
	}
	return schema.Occurrence{}, fmt.Errorf("no occurrence %q", id)
}
