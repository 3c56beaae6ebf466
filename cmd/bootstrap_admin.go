/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/propmgr/apiserver/config"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/db"
	"github.com/propmgr/apiserver/internal/logs"
	"github.com/propmgr/apiserver/internal/server"
	"github.com/propmgr/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// bootstrapAdminCmd represents the bootstrap-admin command
var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create or repair the administrator account",
	Long: `Ensures the account named by ADMIN_EMAIL exists, holds the ADMIN role
and accepts ADMIN_PASSWORD. Running it again is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logs.New(logs.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		outcome, err := server.ReconcileAdmin(cmd.Context(), cfg.Admin,
			store.NewAccountRepository(dbConn), auth.NewPasswordHasher(cfg.BcryptCost), nil, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin account %s\n", outcome)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapAdminCmd)
}
