/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/barklazza/projeto-vendas/config"
	"github.com/barklazza/projeto-vendas/internal/db"
	"github.com/barklazza/projeto-vendas/internal/mq"
	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/barklazza/projeto-vendas/internal/store"
	"github.com/spf13/cobra"
)

var bootstrapOpenID string

// bootstrapCmd grants the admin role to an account.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Grant the admin role to an account",
	Long: `Grant the admin role to the account with the given open id, creating
the account if it has never signed in. Defaults to OWNER_OPEN_ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)

		openID := bootstrapOpenID
		if openID == "" {
			openID = cfg.Auth.OwnerOpenID
		}
		if openID == "" {
			return fmt.Errorf("--open-id or OWNER_OPEN_ID is required")
		}

		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		var events services.EventPublisher
		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			logger.Warn("audit broker unavailable", "error", err)
		} else if broker != nil {
			defer broker.Close()
			events = mq.NewAuditPublisher(broker, cfg.MQ.Channel, logger)
		}

		users := services.NewUserService(store.NewUserRepository(conn), events, logger)
		user, err := users.ProvisionAdmin(cmd.Context(), openID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) is now admin\n", user.ID, user.OpenID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().StringVar(&bootstrapOpenID, "open-id", "", "open id of the account to promote")
}
