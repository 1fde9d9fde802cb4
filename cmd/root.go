/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shiftclock/config"
)

var (
	cfgFile     string
	dbOverride  string
	logLevelArg string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shiftclock",
	Short: "Track work and break time and check it against break rules.",
	Long: `
**********************************************
*               SHIFTCLOCK                   *
**********************************************

Clock in and out, toggle breaks, and see how much of the day counts as paid
work once the break rules of your region are applied (Germany, UK, default;
contractors are exempt).

Entries are stored in SQLite (default) or PostgreSQL.
`,
	Example: `
  # Create configuration file
  shiftclock config create

  # Start, pause and stop the working day
  shiftclock start
  shiftclock break
  shiftclock break
  shiftclock stop

  # Show the running session and today's totals
  shiftclock status

  # Add a forgotten entry
  shiftclock entry add --date 2026-03-04 --start 09:00 --end 17:00 --note "forgot to clock in"

  # Monthly compliance report
  shiftclock report month 2026-03

  # Serve the JSON API
  shiftclock serve --port 8080
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.shiftclock.yaml, then ./.shiftclock.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Database DSN override (SQLite file path or postgres URL)")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "", "Log level override: trace|debug|info|warn|error")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".shiftclock")
	}

	viper.SetEnvPrefix("SHIFTCLOCK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Config file %s could not be read: %v\n", cfgFile, err)
	}
}
