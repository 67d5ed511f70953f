// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Fieldreport-store serves a SQLite-backed report store over HTTP for
// fieldreport clients configured with the "service" backend.
//
// It reads the same fieldreport.yaml as the client: store.sqlite_path
// and store.tables select the database and its tables, server.listen
// the address, and server.token_file the bearer token clients must
// present. The tables are provisioned at startup.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/lib/config"
	"github.com/bureau-foundation/fieldreport/lib/process"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
	"github.com/bureau-foundation/fieldreport/lib/storeservice"
	"github.com/bureau-foundation/fieldreport/lib/version"
)

func main() {
	defer process.RecoverAndExit()
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath  string
		listen      string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("fieldreport-store", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to fieldreport.yaml (default $"+config.EnvVar+")")
	flagSet.StringVar(&listen, "listen", "", "listen address (default server.listen)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("fieldreport-store %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Server.Listen
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	token, err := config.ReadSecret(cfg.Server.TokenFile)
	if err != nil {
		return fmt.Errorf("server.token_file: %w", err)
	}
	if token == "" {
		logger.Warn("no server.token_file configured; the store accepts unauthenticated requests")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}
	store, err := remotestore.OpenSQLite(cfg.Store.SQLitePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := remotestore.Provision(ctx, store, cfg.Store.Tables); err != nil {
		return fmt.Errorf("provisioning %s: %w", cfg.Store.SQLitePath, err)
	}

	server := storeservice.NewServer(storeservice.Config{
		Store:  store,
		Token:  token,
		Logger: logger,
	})
	logger.Info("store service starting",
		"listen", listen,
		"database", cfg.Store.SQLitePath,
		"version", version.Info(),
	)
	return storeservice.NewListener(listen, server.Router(), logger).Serve(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Store.SQLitePath == "" {
		return nil, fmt.Errorf("store.sqlite_path is required")
	}
	if cfg.Server.Listen == "" {
		return nil, fmt.Errorf("server.listen is required")
	}
	return cfg, nil
}
