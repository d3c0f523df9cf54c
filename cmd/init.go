// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fluentorm/fluent/cmd/flags"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the migrations directory and tracking table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := os.MkdirAll(flags.MigrationsDir(), 0o755); err != nil {
			return err
		}

		r, err := newRunner(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Init(ctx); err != nil {
			return err
		}

		pterm.Success.Println("initialized " + flags.MigrationsDir() + " and the tracking table")
		return nil
	},
}
