package main

import (
	"fmt"
	"time"

	"inventory-backend/internal/config"
	"inventory-backend/internal/shared/middleware"
	"inventory-backend/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// token: ký admin access token cho môi trường dev (gọi API import bằng curl)
func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			if cfg.App.Environment == "production" {
				return withCode(exitUsage, fmt.Errorf("refusing to mint tokens in production"))
			}

			if userID == "" {
				userID = uuid.New().String()
			} else if _, err := uuid.Parse(userID); err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --user: %w", err))
			}

			token, err := jwt.NewManager(cfg.JWT.Secret).GenerateAccessToken(userID, email, middleware.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User UUID (random if empty)")
	cmd.Flags().StringVar(&email, "email", "admin@localhost", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
