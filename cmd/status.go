// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fluentorm/fluent/cmd/flags"
)

type statusOutput struct {
	Applied []string `json:"applied"`
	Pending []string `json:"pending"`
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			st, err := r.Status(ctx)
			if err != nil {
				return err
			}

			out := statusOutput{Applied: st.Applied, Pending: st.Pending}
			if flags.JSON() {
				b, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("encode status: %w", err)
				}
				fmt.Println(string(b))
				return nil
			}

			pterm.DefaultSection.Println("Applied")
			if len(out.Applied) == 0 {
				fmt.Println("  (none)")
			}
			for _, name := range out.Applied {
				fmt.Println("  " + name)
			}

			pterm.DefaultSection.Println("Pending")
			if len(out.Pending) == 0 {
				fmt.Println("  (none)")
			}
			for _, name := range out.Pending {
				fmt.Println("  " + name)
			}

			return nil
		},
	}
	flags.RegisterJSON(cmd)
	return cmd
}
