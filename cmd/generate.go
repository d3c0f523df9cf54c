// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fluentorm/fluent/cmd/flags"
	"github.com/fluentorm/fluent/pkg/fluent"
	"github.com/fluentorm/fluent/pkg/merge"
	"github.com/fluentorm/fluent/pkg/runner"
)

const defaultSnapshotPath = ".fluent_snapshot.json"

// Sources supplies the schema-builder fragments generate diffs against the
// snapshot. Fragment discovery (walking a directory tree, parsing CLI args)
// is deliberately left to the embedding program, which sets this before
// calling Execute, typically from its own package-init-time fragment
// registrations.
var Sources func() ([]merge.Source, error)

func generateCmd() *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Diff the current schema against the snapshot and emit migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if Sources == nil {
				return fmt.Errorf("generate: no schema fragments registered (cmd.Sources is nil)")
			}
			sources, err := Sources()
			if err != nil {
				return fmt.Errorf("generate: load schema fragments: %w", err)
			}

			// A new migration's timestamp must sort after every migration
			// already on disk, not merely after the prior snapshot: seed
			// from one past the highest existing up-migration timestamp,
			// falling back to the current time only when the migrations
			// directory has nothing in it yet.
			seed, ok, err := runner.NextTimestampSeed(flags.MigrationsDir())
			if err != nil {
				return fmt.Errorf("generate: scan existing migrations: %w", err)
			}
			if !ok {
				seed = timeNowUnix()
			}
			result, err := fluent.Generate(sources, snapshotPath, flags.MigrationsDir(), seed)
			if err != nil {
				return err
			}

			if len(result.Files) == 0 {
				pterm.Info.Println("schema is already up to date; no migrations generated")
				return nil
			}

			for _, f := range result.Files {
				pterm.Success.Println("wrote " + f.UpFilename())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", defaultSnapshotPath, "Path to the schema snapshot file")

	return cmd
}
