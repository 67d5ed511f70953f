// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/auth"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

func (streams IO) loginCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "login",
		Summary: "Sign in and cache the credential",
		Description: `Sign in with the configured identity provider.

Opens the provider's authorization page in a browser and waits for the
redirect. When the browser cannot reach this machine, paste the URL the
provider redirected to (or just its code) on stdin. The credential is
cached so later commands and the terminal app start signed in.`,
		Flags: func() *pflag.FlagSet { return configFlags("login", &configPath) },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if err := env.config.ValidateAuth(); err != nil {
					return fmt.Errorf("login is not configured: %w", err)
				}
				if err := env.session.Login(ctx); err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				email, err := env.session.ResolveIdentity(ctx)
				if err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				fmt.Fprintf(streams.Stdout, "Signed in as %s\n", email)
				profile, err := env.resolver.ResolveProfile(ctx, email)
				if err != nil {
					env.logger.Warn("could not check access after login", "error", err)
					return nil
				}
				printAccessHint(streams.Stdout, profile)
				return nil
			})
		},
	}
}

func (streams IO) logoutCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the cached credential",
		Flags:   func() *pflag.FlagSet { return configFlags("logout", &configPath) },
		Run: func(args []string) error {
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if err := env.session.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(streams.Stdout, "Signed out")
				return nil
			})
		},
	}
}

func (streams IO) whoamiCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the signed-in account and its access",
		Description: `Show the signed-in account, its role and its approval status.

Exits 1 without an error message when nobody is signed in.`,
		Flags: func() *pflag.FlagSet { return configFlags("whoami", &configPath) },
		Run: func(args []string) error {
			return streams.withEnvironment(configPath, func(ctx context.Context, env *environment) error {
				if err := env.session.Initialize(ctx); err != nil {
					env.logger.Debug("cached session unusable", "error", err)
				}
				if env.session.State() != auth.Valid {
					fmt.Fprintln(streams.Stdout, "Not signed in")
					return &cli.ExitError{Code: 1}
				}
				email, err := env.session.ResolveIdentity(ctx)
				if err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				profile, err := env.resolver.ResolveProfile(ctx, email)
				if err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				fmt.Fprintf(streams.Stdout, "email:   %s\n", profile.Email)
				fmt.Fprintf(streams.Stdout, "role:    %s\n", profile.Role)
				fmt.Fprintf(streams.Stdout, "status:  %s\n", profile.Status)
				if profile.Company != "" {
					fmt.Fprintf(streams.Stdout, "company: %s\n", profile.Company)
				}
				printAccessHint(streams.Stdout, profile)
				return nil
			})
		},
	}
}

// printAccessHint tells the user what to do next when the account
// cannot report yet.
func printAccessHint(w io.Writer, profile schema.UserProfile) {
	switch profile.Status {
	case schema.StatusUnregistered, schema.StatusRejected:
		fmt.Fprintln(w, "No approved access. Run 'fieldreport request-access' to ask for it.")
	case schema.StatusPending, schema.StatusUnknown:
		fmt.Fprintln(w, "Your access request is pending review.")
	}
}
