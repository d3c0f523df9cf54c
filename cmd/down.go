// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recently applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, err := newRunner(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		name, err := r.Down(ctx)
		if err != nil {
			return err
		}

		if name == "" {
			pterm.Info.Println("no migrations have been applied; nothing to roll back")
			return nil
		}

		pterm.Success.Println("rolled back " + name)
		return nil
	},
}
