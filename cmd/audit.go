/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/barklazza/projeto-vendas/config"
	"github.com/barklazza/projeto-vendas/internal/mq"
	"github.com/spf13/cobra"
)

// auditCmd groups audit event tooling.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect audit events",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log audit events as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return fmt.Errorf("MQ_BACKEND is not set")
		}
		defer broker.Close()

		logger.Info("tailing audit events", "channel", cfg.MQ.Channel)
		err = broker.Subscribe(ctx, cfg.MQ.Channel, func(ctx context.Context, msg mq.Message) error {
			event, err := mq.DecodeEvent(msg)
			if err != nil {
				logger.WarnContext(ctx, "undecodable audit message", "message_id", msg.ID, "error", err)
				return nil
			}
			logger.InfoContext(ctx, "audit event",
				"event_id", event.ID,
				"type", event.Type,
				"actor_id", event.ActorID,
				"subject", event.Subject,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTailCmd)
}
