// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

func (streams IO) adminCommand() *cli.Command {
	return &cli.Command{
		Name:    "admin",
		Summary: "Manage the user directory (admins only)",
		Description: `Review access requests and manage roles.

Every admin command requires a signed-in account with the approved
admin role.`,
		Subcommands: []*cli.Command{
			streams.adminUsersCommand(),
			streams.adminStatusCommand("approve", "Approve a user's access", schema.StatusApproved),
			streams.adminStatusCommand("reject", "Reject a user's access request", schema.StatusRejected),
			streams.adminStatusCommand("pending", "Return a user to pending review", schema.StatusPending),
			streams.adminRoleCommand(),
		},
	}
}

func (streams IO) adminUsersCommand() *cli.Command {
	var (
		configPath string
		statuses   []string
	)
	return &cli.Command{
		Name:    "users",
		Summary: "List directory entries",
		Flags: func() *pflag.FlagSet {
			flagSet := configFlags("users", &configPath)
			flagSet.StringSliceVar(&statuses, "status", nil, "only list users with these statuses (pending, approved, rejected)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show requests waiting for review",
				Command:     "fieldreport admin users --status pending",
			},
		},
		Run: func(args []string) error {
			var filter []schema.Status
			for _, value := range statuses {
				status := schema.ParseStatus(value)
				if status == schema.StatusUnknown {
					return fmt.Errorf("unknown status %q", value)
				}
				filter = append(filter, status)
			}
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if _, err := env.adminProfile(ctx); err != nil {
					return err
				}
				users, err := env.resolver.ListUsers(ctx, filter...)
				if err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				writer := tabwriter.NewWriter(streams.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(writer, "EMAIL\tNAME\tROLE\tSTATUS\tCOMPANY")
				for _, user := range users {
					fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
						user.Email, user.DisplayName, user.Role, user.Status, user.Company)
				}
				return writer.Flush()
			})
		},
	}
}

func (streams IO) adminStatusCommand(name, summary string, status schema.Status) *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "fieldreport admin " + name + " <email> [flags]",
		Flags:   func() *pflag.FlagSet { return configFlags(name, &configPath) },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%s takes exactly one email", name)
			}
			email := args[0]
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if _, err := env.adminProfile(ctx); err != nil {
					return err
				}
				if err := env.resolver.Approve(ctx, email, status); err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				fmt.Fprintf(streams.Stdout, "%s is %s\n", email, status)
				return nil
			})
		},
	}
}

func (streams IO) adminRoleCommand() *cli.Command {
	var (
		configPath string
		company    string
	)
	return &cli.Command{
		Name:    "role",
		Summary: "Change a user's role",
		Usage:   "fieldreport admin role <email> <role> [--company <company>]",
		Flags: func() *pflag.FlagSet {
			flagSet := configFlags("role", &configPath)
			flagSet.StringVar(&company, "company", "", "set the user's company as well")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Make a municipal agent a partner",
				Command:     "fieldreport admin role agent@example.org partner --company 'Acme Telecom'",
			},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return errors.New("role takes an email and a role")
			}
			email := args[0]
			role, ok := schema.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}
			var newCompany *string
			if company != "" {
				newCompany = &company
			}
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if _, err := env.adminProfile(ctx); err != nil {
					return err
				}
				if err := env.resolver.UpdateRole(ctx, email, role, newCompany); err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				fmt.Fprintf(streams.Stdout, "%s is %s\n", email, role)
				return nil
			})
		},
	}
}
