// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storeservice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bureau-foundation/fieldreport/lib/remotestore"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/testutil"
)

func newTestService(t *testing.T, store remotestore.Store, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := NewServer(Config{Store: store, Token: token, Logger: testutil.Logger(t)})
	httpServer := httptest.NewServer(server.Router())
	t.Cleanup(httpServer.Close)
	client, err := NewClient(ClientConfig{URL: httpServer.URL, Token: token})
	if err != nil {
		t.Fatal(err)
	}
	return client, httpServer
}

func TestClientRoundTrip(t *testing.T) {
	backing := remotestore.NewMemory("Users")
	client, _ := newTestService(t, backing, "")
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	err := client.Append(ctx, "Users",
		remotestore.Row{"a@example.org", "A", "a", "admin", "approved", ""},
		remotestore.Row{"b@example.org", "B", "b", "partner", "pending", "Acme"},
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows, err := client.Scan(ctx, "Users")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 2 || rows[1][5] != "Acme" {
		t.Errorf("Scan = %q", rows)
	}

	updated, err := client.Update(ctx, "Users", 0, "B@EXAMPLE.ORG",
		remotestore.Row{"b@example.org", "B", "b", "partner", "approved", "Acme"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if backing.Rows("Users")[1][4] != "approved" {
		t.Errorf("backing row = %q", backing.Rows("Users")[1])
	}
}

func TestEmptyTableScansAsEmpty(t *testing.T) {
	client, _ := newTestService(t, remotestore.NewMemory("Tests"), "")
	rows, err := client.Scan(context.Background(), "Tests")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %q", rows)
	}
}

func TestMissingTableMapsToErrNoSuchTable(t *testing.T) {
	client, _ := newTestService(t, remotestore.NewMemory(), "")
	err := client.Append(context.Background(), "Occurrences", remotestore.Row{"x"})
	if !errors.Is(err, remotestore.ErrNoSuchTable) {
		t.Fatalf("error = %v, want ErrNoSuchTable", err)
	}
	if remotestore.IsTransient(err) {
		t.Error("a missing table is not transient")
	}
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
		t.Errorf("status = %+v", status)
	}
}

func TestTokenIsEnforced(t *testing.T) {
	backing := remotestore.NewMemory("Users")
	_, httpServer := newTestService(t, backing, "s3cret")

	anonymous, err := NewClient(ClientConfig{URL: httpServer.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = anonymous.Scan(context.Background(), "Users")
	var status *StatusError
	if !errors.As(err, &status) || status.Code != codeUnauthorized {
		t.Fatalf("anonymous scan = %v, want unauthorized", err)
	}
	if err := anonymous.Health(context.Background()); err != nil {
		t.Errorf("health must not need the token: %v", err)
	}

	wrong, _ := NewClient(ClientConfig{URL: httpServer.URL, Token: "guess"})
	if _, err := wrong.Scan(context.Background(), "Users"); !errors.As(err, &status) {
		t.Errorf("wrong token scan = %v", err)
	}
}

func TestServerFailuresAreTransient(t *testing.T) {
	backing := remotestore.NewMemory("Users")
	backing.FailWith(remotestore.OpScan, "Users", errors.New("disk on fire"))
	client, _ := newTestService(t, backing, "")
	_, err := client.Scan(context.Background(), "Users")
	if !remotestore.IsTransient(err) {
		t.Fatalf("error = %v, want transient", err)
	}
}

func TestUnreachableServiceIsTransient(t *testing.T) {
	httpServer := httptest.NewServer(http.NotFoundHandler())
	url := httpServer.URL
	httpServer.Close()

	client, err := NewClient(ClientConfig{URL: url, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Scan(context.Background(), "Users"); !remotestore.IsTransient(err) {
		t.Errorf("error = %v, want transient", err)
	}
}

func TestProvisionThroughService(t *testing.T) {
	backing := remotestore.NewMemory()
	client, _ := newTestService(t, backing, "")
	ctx := context.Background()
	if err := remotestore.Provision(ctx, client, schema.DefaultTables); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	for _, table := range []string{"Occurrences", "Tests", "Users"} {
		if _, err := client.Scan(ctx, table); err != nil {
			t.Errorf("Scan(%s) after provisioning: %v", table, err)
		}
	}
}

func TestBadUpdateIsRejected(t *testing.T) {
	client, _ := newTestService(t, remotestore.NewMemory("Users"), "")
	_, err := client.Update(context.Background(), "Users", 4, "k", remotestore.Row{"k"})
	var status *StatusError
	if !errors.As(err, &status) || status.Code != codeBadRequest {
		t.Errorf("error = %v, want bad_request", err)
	}
}

func TestNewClientRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"ftp://store", "store.example.org", "://"} {
		if _, err := NewClient(ClientConfig{URL: raw}); err == nil {
			t.Errorf("NewClient(%q) succeeded", raw)
		}
	}
}

func TestListenerServesUntilCancelled(t *testing.T) {
	server := NewServer(Config{Store: remotestore.NewMemory("Users"), Logger: testutil.Logger(t)})
	listener := NewListener("127.0.0.1:0", server.Router(), testutil.Logger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Serve(ctx) }()

	testutil.RequireClosed(t, listener.Ready(), 5*time.Second, "listener never became ready")
	client, err := NewClient(ClientConfig{URL: "http://" + listener.Addr().String()})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	cancel()
	if err := testutil.RequireReceive(t, done, 15*time.Second, "Serve did not return"); err != nil {
		t.Errorf("Serve = %v", err)
	}
}
