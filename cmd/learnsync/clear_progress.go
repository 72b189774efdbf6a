package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/learnsync/internal/app"
)

var (
	clearAccountFlag string
	clearNameFlag    string
)

var clearProgressCmd = &cobra.Command{
	Use:   "clear-progress",
	Short: "Delete every progress record of one account",
	Long: `Deletes all canonical records of the account's subject. The game
progress blob is kept.

EXAMPLES:
  learnsync clear-progress --account 6f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, err := uuid.Parse(clearAccountFlag)
		if err != nil || accountID == uuid.Nil {
			return fmt.Errorf("--account must be an account uuid")
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := app.OpenDB(cfg, log)
		if err != nil {
			return err
		}
		svc, err := app.WireProgressSync(db, log, cfg)
		if err != nil {
			return err
		}
		n, err := svc.ClearProgress(cmd.Context(), accountID, clearNameFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d records for %s\n", n, accountID)
		return nil
	},
}

func init() {
	clearProgressCmd.Flags().StringVar(&clearAccountFlag, "account", "", "account uuid (required)")
	clearProgressCmd.Flags().StringVar(&clearNameFlag, "name", "", "account display name, used to find a legacy subject")
	_ = clearProgressCmd.MarkFlagRequired("account")
}
