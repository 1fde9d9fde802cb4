package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shiftclock/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration, the resolved config file path
and the compliance rule set derived from the user settings.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  shiftclock config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		profile, err := cfg.Profile()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		out := cmd.OutOrStdout()
		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Fprintln(out, "Config file loaded from:", configPath)
		} else {
			fmt.Fprintln(out, "No config file found, using defaults.")
		}
		fmt.Fprintln(out, "Configuration:")
		fmt.Fprintf(out, "user.id: %s\n", cfg.User.ID)
		fmt.Fprintf(out, "user.employment_type: %s\n", cfg.User.EmploymentType)
		fmt.Fprintf(out, "user.holiday_region: %s\n", cfg.User.HolidayRegion)
		fmt.Fprintf(out, "database.driver: %s\n", cfg.Database.Driver)
		fmt.Fprintf(out, "database.dsn: %s\n", cfg.Database.DSN)
		fmt.Fprintf(out, "server.port: %d\n", cfg.Server.Port)
		fmt.Fprintf(out, "log.level: %s\n", cfg.Log.Level)
		fmt.Fprintf(out, "log.format: %s\n", cfg.Log.Format)
		fmt.Fprintf(out, "rules: %s (%s)\n", profile.Region, profile.EmploymentType)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
