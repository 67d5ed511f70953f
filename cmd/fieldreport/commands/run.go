// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/dispatch"
	"github.com/bureau-foundation/fieldreport/lib/navigation"
	"github.com/bureau-foundation/fieldreport/lib/reportui"
	"github.com/bureau-foundation/fieldreport/lib/tui"
)

func (streams IO) runCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "run",
		Summary: "Open the terminal app (the default)",
		Description: `Open the interactive terminal app.

The app starts from the cached credential when there is one. Log
records go to the configured log file; warnings and errors also show
in the status bar.`,
		Flags: func() *pflag.FlagSet { return configFlags("run", &configPath) },
		Run: func(args []string) error {
			return streams.runApp(configPath, args)
		},
	}
}

// runApp wires the environment into the bubbletea model and runs it
// until the user quits.
func (streams IO) runApp(configPath string, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q", args[0])
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.Paths.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	handler := tui.NewLogHandler(slog.LevelWarn, slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	logger := slog.New(handler)

	ctx, cancel := signalContext()
	defer cancel()

	notify := func(authURL string) {
		logger.Warn("open this address in a browser to sign in", "url", authURL)
	}
	env, err := streams.openEnvironment(ctx, cfg, logger, false, notify)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := env.close(); closeErr != nil {
			logger.Warn("closing store", "error", closeErr)
		}
	}()

	dispatcher := dispatch.New(ctx, logger)
	controller := navigation.New(navigation.SessionContext{
		Session:    env.session,
		Directory:  env.resolver,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	controller.OnChange(func(transition navigation.Transition) {
		logger.Debug("view changed", "from", transition.From.String(), "to", transition.To.String())
	})
	model := reportui.New(reportui.Config{
		Controller: controller,
		Dispatcher: dispatcher,
		Admin:      env.resolver,
		Submitter:  env.pipeline,
		Logger:     logger,
	})

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	handler.SetProgram(program)
	defer handler.SetProgram(nil)

	logger.Info("terminal app started", "environment", cfg.Environment, "store", cfg.Store.Backend)
	_, err = program.Run()
	cancel()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal app: %w", err)
	}
	return nil
}
