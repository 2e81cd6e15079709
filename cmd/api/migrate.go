package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the workDiary table and index if they do not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, flush, err := setup()
		if err != nil {
			return err
		}
		defer flush()

		_, closeDB, err := openRepository(cmd.Context(), cfg)
		if err != nil {
			slog.Error("Migration failed", "driver", cfg.DBDriver, "error", err)
			return err
		}
		closeDB()

		slog.Info("Schema is up to date", "driver", cfg.DBDriver)
		return nil
	},
}
