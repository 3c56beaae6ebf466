/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propmgr/apiserver/config"
	"github.com/propmgr/apiserver/internal/db"
	"github.com/propmgr/apiserver/internal/server"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the property management API server",
	Long: `Starts the property management API server. The administrator account
is created or repaired before the listener opens. Usage:

	apiserver server
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		if migrateOnStart {
			if err := db.MigrateUp(cfg.Database); err != nil {
				fmt.Fprintf(os.Stderr, "failed to migrate database: %v\n", err)
				os.Exit(1)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
			os.Exit(1)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				fmt.Fprintf(os.Stderr, "server error: %v\n", err)
				os.Exit(1)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before starting")
}
