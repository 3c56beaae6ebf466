/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/propmgr/apiserver/config"
	"github.com/propmgr/apiserver/internal/db"
	"github.com/spf13/cobra"
)

var migrateDownSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		return db.MigrateUp(cfg.Database)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		return db.MigrateDown(cfg.Database, migrateDownSteps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		version, dirty, err := db.MigrationVersion(cfg.Database)
		if err != nil {
			return err
		}
		if dirty {
			fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "Number of migrations to roll back")
}
