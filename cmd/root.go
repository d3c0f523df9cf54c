// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluentorm/fluent/cmd/flags"
	"github.com/fluentorm/fluent/internal/config"
	"github.com/fluentorm/fluent/internal/log"
	"github.com/fluentorm/fluent/pkg/runner"
)

// Version is the fluent CLI version.
var Version = "development"

func init() {
	flags.RegisterMigrationsDir(rootCmd)
	rootCmd.PersistentFlags().Int("lock-timeout", 500, "Postgres lock timeout in milliseconds for migration DDL")
	viper.BindPFlag("LOCK_TIMEOUT", rootCmd.PersistentFlags().Lookup("lock-timeout"))
}

var rootCmd = &cobra.Command{
	Use:          "fluent",
	Short:        "FluentORM schema compiler and migration runner",
	SilenceUsage: true,
	Version:      Version,
	// Running fluent with no subcommand applies pending migrations:
	// "up" is the default subcommand.
	RunE: upCmd.RunE,
}

// newRunner opens a Runner against the database configured via the
// FLUENT_DB_* environment variables and the --migrations-dir/--lock-timeout
// flags.
func newRunner(ctx context.Context) (*runner.Runner, error) {
	dbCfg, err := config.LoadDB()
	if err != nil {
		return nil, err
	}

	r, err := runner.New(ctx, dbCfg.URL(), flags.MigrationsDir(),
		runner.WithLockTimeoutMs(viper.GetInt("LOCK_TIMEOUT")),
		runner.WithLogger(log.NewPterm()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return r, nil
}

// Execute runs the fluent CLI, returning the error that occurred (if any)
// so main can translate it into a process exit code.
func Execute() error {
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(initCmd)

	return rootCmd.Execute()
}
