/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/propmgr/apiserver/config"
	"github.com/propmgr/apiserver/internal/logs"
	"github.com/propmgr/apiserver/internal/mq"
	"github.com/propmgr/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail account lifecycle events",
	Long: `Subscribes to MQ_ACCOUNT_TOPIC on the configured MQ_BACKEND and prints
each account event as a JSON line until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logs.New(logs.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer broker.Close()

		roles, _ := cmd.Flags().GetStringSlice("role")
		encoder := json.NewEncoder(cmd.OutOrStdout())
		log.WithField("topic", cfg.MQ.AccountTopic).Info("tailing account events")

		err = mq.NewAccountEventPublisher(broker, cfg.MQ.AccountTopic).SubscribeAccountEvents(ctx,
			func(_ context.Context, event types.AccountEvent) error {
				if !matchesRole(event.Role, roles) {
					return nil
				}
				log.WithFields(logrus.Fields{
					"event_id":   event.ID,
					"event_type": event.Type,
					"account_id": event.AccountID,
				}).Debug("account event")
				return encoder.Encode(event)
			})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func matchesRole(role types.Role, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, raw := range filter {
		if parsed, ok := types.ParseRole(raw); ok && parsed == role {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringSlice("role", nil, "only print events for accounts with these roles")
}
