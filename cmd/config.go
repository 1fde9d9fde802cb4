package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage shiftclock configuration file values.",
	Long: `Create, edit, display, and delete the shiftclock configuration file.

The configuration stores:
- user.id / user.employment_type / user.holiday_region
- database.driver / database.dsn
- server.port
- log.level / log.format`,
	Example: `
  # Create default config in $HOME/.shiftclock.yaml
  shiftclock config create

  # Show active config and the resolved rule set
  shiftclock config show

  # Open active config in editor (creates example if missing)
  shiftclock config edit

  # Delete active config file
  shiftclock config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
