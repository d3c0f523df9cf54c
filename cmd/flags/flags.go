// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultMigrationsDir = "./migrations"

// MigrationsDir returns the --migrations-dir flag's bound value.
func MigrationsDir() string {
	return viper.GetString("MIGRATIONS_DIR")
}

// JSON returns the --json flag's bound value, used by the status command.
func JSON() bool {
	return viper.GetBool("STATUS_JSON")
}

// RegisterMigrationsDir adds --migrations-dir to cmd and binds it through
// viper.
func RegisterMigrationsDir(cmd *cobra.Command) {
	cmd.PersistentFlags().String("migrations-dir", defaultMigrationsDir, "Directory containing migration files")
	viper.BindPFlag("MIGRATIONS_DIR", cmd.PersistentFlags().Lookup("migrations-dir"))
}

// RegisterJSON adds --json to cmd and binds it through viper.
func RegisterJSON(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output status as JSON")
	viper.BindPFlag("STATUS_JSON", cmd.Flags().Lookup("json"))
}
