package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "countdown-bot",
	Short:        "Discord countdown game bot",
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Optional dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.AddCommand(runCmd, migrateCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
