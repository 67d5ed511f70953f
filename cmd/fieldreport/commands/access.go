// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/access"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

type requestParams struct {
	configPath string
	fullName   string
	username   string
	role       string
	company    string
}

func (streams IO) requestAccessCommand() *cli.Command {
	var params requestParams
	return &cli.Command{
		Name:    "request-access",
		Summary: "Ask an administrator for access",
		Description: `Record an access request for the signed-in account.

The request is made for the account's own email. Partners must name
their company. A pending request is left as it is; a rejected one is
reopened with the new details.`,
		Usage: "fieldreport request-access --name <full name> --username <name> --role partner|municipal-agent [--company <company>]",
		Flags: func() *pflag.FlagSet {
			flagSet := configFlags("request-access", &params.configPath)
			flagSet.StringVar(&params.fullName, "name", "", "your full name")
			flagSet.StringVar(&params.username, "username", "", "the username you want")
			flagSet.StringVar(&params.role, "role", "", "requested role: partner or municipal-agent")
			flagSet.StringVar(&params.company, "company", "", "company you work for (required for partners)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Request partner access",
				Command:     "fieldreport request-access --name 'Ana Souza' --username ana --role partner --company 'Acme Telecom'",
			},
		},
		Run: func(args []string) error {
			request := schema.AccessRequest{
				FullName: params.fullName,
				Username: params.username,
				Company:  params.company,
			}
			if params.role != "" {
				role, ok := schema.ParseRole(params.role)
				if !ok {
					return fmt.Errorf("unknown role %q", params.role)
				}
				request.Role = role
			}
			return streams.withEnvironment(params.configPath, func(ctx context.Context, env *environment) error {
				email, err := env.signedIn(ctx)
				if err != nil {
					return err
				}
				request.Email = email
				if err := access.ValidateRequest(request); err != nil {
					return err
				}
				message, err := env.resolver.SubmitAccessRequest(ctx, request)
				if err != nil {
					return fmt.Errorf("%s", failure.UserMessage(err))
				}
				fmt.Fprintln(streams.Stdout, message)
				return nil
			})
		},
	}
}
