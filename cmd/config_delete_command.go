package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shiftclock/config"
)

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by shiftclock.

Afterwards commands run with the built-in defaults (user.id "me", employee,
no holiday region, SQLite at ./shiftclock.db) until a new file is created.
If no configuration file is active, the command returns an error.`,
	Example: `
  # Delete active config
  shiftclock config delete

  # Delete config at a custom path
  shiftclock --configFile ./custom-shiftclock.yaml config delete
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteConfigFile(cmd.OutOrStdout(), viper.ConfigFileUsed())
	},
}

func deleteConfigFile(out io.Writer, configPath string) error {
	if configPath == "" {
		return fmt.Errorf("no configuration file found")
	}

	if err := os.Remove(configPath); err != nil {
		return fmt.Errorf("error deleting configuration file: %w", err)
	}

	fmt.Fprintf(out, "Configuration file successfully deleted: %s\n", configPath)
	fmt.Fprintf(out, "Using defaults: user.id=%s database.dsn=%s\n", config.DefaultUserID, config.DefaultDatabaseDSN)
	return nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}
