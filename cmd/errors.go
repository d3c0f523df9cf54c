// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/fluentorm/fluent/pkg/runner"
	"github.com/fluentorm/fluent/pkg/schema"
	"github.com/fluentorm/fluent/pkg/snapshot"
)

// ExitCode maps an error returned from Execute to a process exit code:
// 0 success, 1 user/config error, 2 migration-application error, 3
// tamper/integrity error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var tampered runner.MigrationTampered
	var missing runner.MigrationMissing
	if errors.As(err, &tampered) || errors.As(err, &missing) {
		return 3
	}

	var failed runner.MigrationFailed
	var unavailable runner.RollbackUnavailable
	if errors.As(err, &failed) || errors.As(err, &unavailable) {
		return 2
	}

	var schemaErr schema.SchemaError
	var malformed snapshot.SnapshotError
	if errors.As(err, &schemaErr) || errors.As(err, &malformed) {
		return 1
	}

	return 1
}
