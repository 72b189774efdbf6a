package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/learnsync/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and seed the activity catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := app.OpenDB(cfg, log)
		if err != nil {
			return err
		}
		return app.Migrate(cmd.Context(), db, log)
	},
}
