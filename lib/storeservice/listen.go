// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Listener serves a handler on a TCP address until its context ends,
// then shuts down gracefully.
type Listener struct {
	address         string
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr
}

// NewListener returns a listener for address. Call Serve to start.
func NewListener(address string, handler http.Handler, logger *slog.Logger) *Listener {
	return &Listener{
		address:         address,
		handler:         handler,
		logger:          logger,
		shutdownTimeout: 10 * time.Second,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the server is accepting connections.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Addr returns the bound address. Only valid after Ready is closed.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// Serve blocks until ctx is cancelled, then stops accepting
// connections and waits for in-flight requests.
func (l *Listener) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", l.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", l.address, err)
	}
	l.addr = listener.Addr()
	close(l.ready)

	server := &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	l.logger.Info("store service listening", "address", l.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		l.logger.Info("store service shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("store service shutdown: %w", err)
	}
	l.logger.Info("store service stopped")
	return nil
}
