package main

import (
	"errors"

	"github.com/spf13/cobra"

	"example.com/gamerelay/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != "postgres" {
				return errors.New("migrate: STORAGE_BACKEND is not postgres")
			}
			return migrate.Up(cfg.Postgres.URL, log)
		},
	}
}
