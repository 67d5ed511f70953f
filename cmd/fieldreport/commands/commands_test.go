// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/fieldreport/lib/auth"
	"github.com/bureau-foundation/fieldreport/lib/config"
	"github.com/bureau-foundation/fieldreport/lib/credential"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/testutil"
)

// stubProvider grants a fixed token and reports whatever email the
// test sets.
type stubProvider struct {
	email      string
	authorized int
}

func (provider *stubProvider) Authorize(context.Context) (credential.Credential, error) {
	provider.authorized++
	return credential.Credential{AccessToken: "granted", Scopes: []string{"openid", "email"}}, nil
}

func (provider *stubProvider) Refresh(_ context.Context, current credential.Credential) (credential.Credential, error) {
	return current, errors.New("refresh not expected")
}

func (provider *stubProvider) UserEmail(context.Context, credential.Credential) (string, error) {
	return provider.email, nil
}

type harness struct {
	t          *testing.T
	dir        string
	configPath string
	provider   *stubProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "fieldreport.yaml")
	content := fmt.Sprintf(`environment: development
paths:
  state: %s
auth:
  client_id: fieldreport-test
  auth_url: https://id.example.org/authorize
  token_url: https://id.example.org/token
store:
  backend: sqlite
  sqlite_path: %s
logging:
  level: debug
`, dir, filepath.Join(dir, "store.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return &harness{t: t, dir: dir, configPath: configPath, provider: &stubProvider{}}
}

// run executes one command line and returns what it printed.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRoot(IO{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
		Logger: func(slog.Level) *slog.Logger { return testutil.Logger(h.t) },
		Provider: func(*config.Config, bool, func(string), *slog.Logger) (auth.Provider, error) {
			return h.provider, nil
		},
	})
	err := root.Execute(append(args, "--config", h.configPath))
	return stdout.String(), err
}

// mustRun is run for command lines that must succeed.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	output, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return output
}

// signIn caches a credential for email, as a previous login would.
func (h *harness) signIn(email string) {
	h.t.Helper()
	h.provider.email = email
	store := credential.NewFileStore(filepath.Join(h.dir, "credential.json"))
	if err := store.Save(credential.Credential{AccessToken: "cached"}); err != nil {
		h.t.Fatal(err)
	}
}

// seedUsers writes directory entries straight into the store.
func (h *harness) seedUsers(profiles ...schema.UserProfile) {
	h.t.Helper()
	store, err := remotestore.OpenSQLite(filepath.Join(h.dir, "store.db"), testutil.Logger(h.t))
	if err != nil {
		h.t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := remotestore.Provision(ctx, store, schema.DefaultTables); err != nil {
		h.t.Fatal(err)
	}
	for _, profile := range profiles {
		if err := store.Append(ctx, schema.DefaultTables.Users, profile.Row()); err != nil {
			h.t.Fatal(err)
		}
	}
}

var adminProfile = schema.UserProfile{
	Email:       "admin@example.org",
	DisplayName: "Rita Admin",
	Username:    "rita",
	Role:        schema.RoleAdmin,
	Status:      schema.StatusApproved,
}

func exitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

func TestWhoamiWithoutSession(t *testing.T) {
	h := newHarness(t)
	output, err := h.run("whoami")
	if exitCode(err) != 1 {
		t.Fatalf("whoami error = %v, want exit code 1", err)
	}
	if !strings.Contains(output, "Not signed in") {
		t.Errorf("output = %q", output)
	}
}

func TestLoginCachesCredential(t *testing.T) {
	h := newHarness(t)
	h.provider.email = "agent@example.org"

	output := h.mustRun("login")
	if !strings.Contains(output, "Signed in as agent@example.org") {
		t.Errorf("login output = %q", output)
	}
	if !strings.Contains(output, "request-access") {
		t.Errorf("unregistered account not pointed at request-access: %q", output)
	}
	if h.provider.authorized != 1 {
		t.Errorf("provider authorized %d times, want 1", h.provider.authorized)
	}

	output = h.mustRun("whoami")
	if !strings.Contains(output, "role:    "+string(schema.RoleUnregistered)) {
		t.Errorf("whoami output = %q", output)
	}
	if h.provider.authorized != 1 {
		t.Errorf("whoami ran a login")
	}

	h.mustRun("logout")
	if _, err := h.run("whoami"); exitCode(err) != 1 {
		t.Errorf("whoami after logout = %v, want exit code 1", err)
	}
}

func TestRequestAccessNeedsSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("request-access", "--name", "Ana", "--username", "ana", "--role", "municipal-agent")
	if err == nil || !strings.Contains(err.Error(), "fieldreport login") {
		t.Fatalf("error = %v, want a hint to log in", err)
	}
}

func TestRequestAccessValidatesLocally(t *testing.T) {
	h := newHarness(t)
	h.signIn("p@example.org")
	_, err := h.run("request-access", "--name", "Paulo", "--username", "paulo", "--role", "partner")
	if err == nil || !strings.Contains(err.Error(), "company is required") {
		t.Fatalf("error = %v, want company is required", err)
	}
	if _, err := h.run("request-access", "--name", "Paulo", "--username", "paulo", "--role", "admin"); err == nil {
		t.Error("admin role was requestable")
	}
}

func TestAccessRequestReviewAndSubmission(t *testing.T) {
	h := newHarness(t)
	h.seedUsers(adminProfile)

	h.signIn("p@example.org")
	output := h.mustRun("request-access", "--name", "Paulo Lima", "--username", "paulo", "--role", "partner", "--company", "Acme Telecom")
	if !strings.Contains(output, "pending review") {
		t.Errorf("request output = %q", output)
	}
	if _, err := h.run("admin", "users"); err == nil {
		t.Error("pending partner could run admin commands")
	}

	h.signIn(adminProfile.Email)
	output = h.mustRun("admin", "users", "--status", "pending")
	if !strings.Contains(output, "p@example.org") || strings.Contains(output, adminProfile.Email) {
		t.Errorf("pending users = %q", output)
	}
	h.mustRun("admin", "approve", "p@example.org")

	draftDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(draftDir, "trace.log"), []byte("trace bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	draftPath := filepath.Join(draftDir, "occurrence.yaml")
	draft := "title: Calls drop after 30s\nregion: Campinas\ntests:\n"
	for _, clockTime := range []string{"09:00", "09:05", "09:10"} {
		draft += fmt.Sprintf(`  - time: "%s"
    origin_number: "+55 19 3200-0000"
    origin_carrier: TIM
    dest_number: "+55 19 3300-0000"
    dest_carrier: Oi
    status: dropped
`, clockTime)
	}
	draft += "attachments:\n  - trace.log\n"
	if err := os.WriteFile(draftPath, []byte(draft), 0o600); err != nil {
		t.Fatal(err)
	}

	h.signIn("p@example.org")
	output = h.mustRun("submit", "--dry-run", draftPath)
	if !strings.Contains(output, "3 tests, 1 attachments") {
		t.Errorf("dry run output = %q", output)
	}
	output = h.mustRun("submit", draftPath)
	fields := strings.Fields(output)
	if len(fields) < 2 || fields[0] != "Occurrence" {
		t.Fatalf("submit output = %q", output)
	}
	occurrenceID := fields[1]

	output = h.mustRun("verify", occurrenceID, filepath.Join(draftDir, "trace.log"))
	if !strings.Contains(output, "matches attachment trace.log") {
		t.Errorf("verify output = %q", output)
	}
	other := filepath.Join(draftDir, "other.log")
	if err := os.WriteFile(other, []byte("different bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := h.run("verify", occurrenceID, other); exitCode(err) != 1 {
		t.Errorf("verify of a different file = %v, want exit code 1", err)
	}
}

func TestSubmitRejectsShortPartnerDraft(t *testing.T) {
	h := newHarness(t)
	h.seedUsers(schema.UserProfile{
		Email:    "p@example.org",
		Username: "paulo",
		Role:     schema.RolePartner,
		Status:   schema.StatusApproved,
		Company:  "Acme Telecom",
	})
	h.signIn("p@example.org")

	draftPath := filepath.Join(t.TempDir(), "short.yaml")
	draft := `title: One test only
tests:
  - time: "10:00"
    origin_number: "1"
    origin_carrier: TIM
    dest_number: "2"
    dest_carrier: Oi
    status: silent
`
	if err := os.WriteFile(draftPath, []byte(draft), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := h.run("submit", draftPath)
	if err == nil || !strings.Contains(err.Error(), "minimum 3 records") {
		t.Fatalf("error = %v, want the partner minimum", err)
	}
}

func TestAdminRoleChange(t *testing.T) {
	h := newHarness(t)
	h.seedUsers(adminProfile, schema.UserProfile{
		Email:    "agent@example.org",
		Username: "ana",
		Role:     schema.RoleMunicipalAgent,
		Status:   schema.StatusApproved,
	})
	h.signIn(adminProfile.Email)

	if _, err := h.run("admin", "role", "agent@example.org", "partner"); err == nil {
		t.Error("partner role accepted without a company")
	}
	h.mustRun("admin", "role", "agent@example.org", "partner", "--company", "Acme Telecom")

	output := h.mustRun("admin", "users")
	if !strings.Contains(output, "partner") || !strings.Contains(output, "Acme Telecom") {
		t.Errorf("users after role change = %q", output)
	}
}

func TestStoreProvisionIsRepeatable(t *testing.T) {
	h := newHarness(t)
	for range 2 {
		output := h.mustRun("store", "provision")
		if !strings.Contains(output, "Occurrences, Tests and Users are ready") {
			t.Errorf("provision output = %q", output)
		}
	}
}

func TestInvalidConfigIsReported(t *testing.T) {
	h := newHarness(t)
	if err := os.WriteFile(h.configPath, []byte("store:\n  backend: spreadsheet\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := h.run("whoami")
	if err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Fatalf("error = %v, want a store.backend complaint", err)
	}
}

func TestHelpListsCommands(t *testing.T) {
	var stderr bytes.Buffer
	root := NewRoot(IO{Stdout: &bytes.Buffer{}, Stderr: &stderr})
	if err := root.Execute([]string{"--help"}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"login", "request-access", "submit", "admin", "store"} {
		if !strings.Contains(stderr.String(), name) {
			t.Errorf("help does not list %s", name)
		}
	}
}
