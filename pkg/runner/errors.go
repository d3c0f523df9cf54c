// SPDX-License-Identifier: Apache-2.0

package runner

import "fmt"

// RunnerError marks the errors pkg/runner returns for reconciliation and
// application failures, so callers can errors.As against a specific kind
// instead of matching on message text.
type RunnerError interface {
	error
	runnerError()
}

// MigrationTampered reports that a migration recorded as applied no longer
// matches the checksum stored for it: its file was edited after the fact.
type MigrationTampered struct {
	Name     string
	Stored   string
	Actual   string
}

func (e MigrationTampered) Error() string {
	return fmt.Sprintf("migration %q has been modified since it was applied: checksum mismatch (stored %s, got %s)", e.Name, e.Stored, e.Actual)
}

func (MigrationTampered) runnerError() {}

// MigrationMissing reports that a migration recorded as applied has no
// corresponding file in the migrations directory.
type MigrationMissing struct {
	Name string
}

func (e MigrationMissing) Error() string {
	return fmt.Sprintf("migration %q is recorded as applied but its file is missing", e.Name)
}

func (MigrationMissing) runnerError() {}

// MigrationFailed reports that applying a migration's SQL body failed; the
// enclosing transaction was rolled back and no later migration was attempted.
type MigrationFailed struct {
	Name string
	Err  error
}

func (e MigrationFailed) Error() string {
	return fmt.Sprintf("migration %q failed: %v", e.Name, e.Err)
}

func (e MigrationFailed) Unwrap() error { return e.Err }

func (MigrationFailed) runnerError() {}

// RollbackUnavailable reports that the most recently applied migration has
// no paired _down.sql file, so Down cannot proceed.
type RollbackUnavailable struct {
	Name string
}

func (e RollbackUnavailable) Error() string {
	return fmt.Sprintf("migration %q has no down file; cannot roll back", e.Name)
}

func (RollbackUnavailable) runnerError() {}
