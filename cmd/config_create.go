package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

If the configuration file already exists, it is left untouched. The template
uses SQLite at ./shiftclock.db and the German break rules (holiday_region de-by).`,
	Example: `
  # Create default config at $HOME/.shiftclock.yaml
  shiftclock config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig(cmd.OutOrStdout())
	},
}

func saveDefaultConfig(out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "New config file created at: %s\n", configPath)
		fmt.Fprintln(out, "Set user.id, user.employment_type and user.holiday_region before tracking time;")
		fmt.Fprintln(out, "the holiday region selects the break rules (de-* Germany, en-uk United Kingdom).")
		return nil
	}

	fmt.Fprintf(out, "Config file already exists at: %s\n", configPath)
	return nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
}
