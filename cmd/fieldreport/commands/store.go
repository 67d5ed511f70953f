// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
)

func (streams IO) storeCommand() *cli.Command {
	return &cli.Command{
		Name:    "store",
		Summary: "Operate on the configured store",
		Subcommands: []*cli.Command{
			streams.storeProvisionCommand(),
		},
	}
}

func (streams IO) storeProvisionCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "provision",
		Summary: "Create the occurrence, test and user tables",
		Description: `Create the configured tables in the store. Tables that already exist
are left untouched, so running this again is harmless.

Local SQLite stores are provisioned automatically; this is for a store
reached through fieldreport-store.`,
		Flags: func() *pflag.FlagSet { return configFlags("provision", &configPath) },
		Run: func(args []string) error {
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				creator, ok := env.store.(remotestore.TableCreator)
				if !ok {
					return fmt.Errorf("the %s backend cannot create tables", env.config.Store.Backend)
				}
				tables := env.config.Store.Tables
				if err := remotestore.Provision(ctx, creator, tables); err != nil {
					return err
				}
				fmt.Fprintf(streams.Stdout, "Tables %s, %s and %s are ready\n",
					tables.Occurrences, tables.Tests, tables.Users)
				return nil
			})
		},
	}
}
