package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/apotek/config"
	"github.com/shashiranjanraj/apotek/database/seeders"
	"github.com/shashiranjanraj/apotek/pkg/database"
	"github.com/shashiranjanraj/apotek/pkg/migration"
)

// withDB opens the configured database for the duration of fn.
func withDB(fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	db, err := database.Connect()
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return fn(db)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *gorm.DB) error {
				applied, err := migration.New(db).Run()
				for _, name := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "Migrated:", name)
				}
				if err == nil && len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
				}
				return err
			})
		},
	}
}

func migrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last batch of migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *gorm.DB) error {
				reverted, err := migration.New(db).Rollback()
				for _, name := range reverted {
					fmt.Fprintln(cmd.OutOrStdout(), "Rolled back:", name)
				}
				if err == nil && len(reverted) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back.")
				}
				return err
			})
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show the status of each migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *gorm.DB) error {
				rows, err := migration.New(db).Status()
				if err != nil {
					return err
				}
				return migration.PrintStatus(cmd.OutOrStdout(), rows)
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter catalog and staff accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *gorm.DB) error {
				ran, err := seeders.RunAll(db)
				for _, name := range ran {
					fmt.Fprintln(cmd.OutOrStdout(), "Seeded:", name)
				}
				return err
			})
		},
	}
}
