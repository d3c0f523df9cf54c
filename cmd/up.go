// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, err := newRunner(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		applied, err := r.Up(ctx)
		if err != nil {
			return err
		}

		if len(applied) == 0 {
			pterm.Info.Println("database is already up to date")
			return nil
		}

		for _, name := range applied {
			pterm.Success.Println("applied " + name)
		}
		fmt.Printf("%d migration(s) applied\n", len(applied))
		return nil
	},
}
