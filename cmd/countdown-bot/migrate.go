package main

import (
	"github.com/spf13/cobra"
	"github.com/stake-plus/countdown/src/data"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, db, err := setup()
		if log != nil {
			defer func() { _ = log.Sync() }()
		}
		if err != nil {
			return err
		}
		if err := data.NewRepository(db).Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info("schema up to date")
		return nil
	},
}
