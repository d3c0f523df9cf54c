// SPDX-License-Identifier: Apache-2.0

// Package fluent is FluentORM's library entry point: it wires the schema
// merger, snapshot store, diff engine, and SQL emitter
// into the single `generate` operation the CLI's generate subcommand drives.
//
// Fragment discovery — how a caller's schema-builder fragments are located
// and loaded — is explicitly left to the caller (filesystem directory
// scanning and CLI argument parsing are external collaborators, outside
// this package). Generate takes the fragment sources as a
// parameter; the embedding program supplies them, typically from its own
// package-init-time fragment registrations.
package fluent

import (
	"time"

	"github.com/fluentorm/fluent/pkg/diff"
	"github.com/fluentorm/fluent/pkg/emit"
	"github.com/fluentorm/fluent/pkg/merge"
	"github.com/fluentorm/fluent/pkg/snapshot"
)

// GenerateResult summarizes one generate invocation.
type GenerateResult struct {
	Changes []diff.Change
	Files   []emit.MigrationFile
}

// Generate merges sources into a SchemaSet, diffs it against the snapshot at
// snapshotPath (an absent file diffs against an empty set: the first
// generation), emits one migration file pair per change using timestampSeed,
// writes those files under migrationsDir, and finally saves the new
// snapshot. If writing the snapshot fails after migrations were already
// written, the migrations remain on disk; the next generate run re-diffs
// against the stale snapshot and finds the same changes again, which is
// redundant but not unsafe.
func Generate(sources []merge.Source, snapshotPath, migrationsDir string, timestampSeed int64) (GenerateResult, error) {
	current, err := merge.Merge(sources)
	if err != nil {
		return GenerateResult{}, err
	}

	prior, err := snapshot.Load(snapshotPath)
	if err != nil {
		return GenerateResult{}, err
	}

	changes, err := diff.Diff(prior, current)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(changes) == 0 {
		return GenerateResult{}, nil
	}

	files, err := emit.Emit(changes, timestampSeed)
	if err != nil {
		return GenerateResult{}, err
	}

	generatedAt := time.Now().UTC().Format(time.RFC3339)
	if err := writeFiles(migrationsDir, files, generatedAt); err != nil {
		return GenerateResult{}, err
	}

	if err := snapshot.Save(snapshotPath, current); err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{Changes: changes, Files: files}, nil
}
