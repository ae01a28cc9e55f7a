package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/storage"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage public share tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	cmd.AddCommand(newTokenRevokeCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var businessID string
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "issue",
		Short: "Issue a share token for a business and print it once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 {
				return fmt.Errorf("--ttl must not be negative")
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			var expiresAt *time.Time
			if ttl > 0 {
				t := time.Now().UTC().Add(ttl).Truncate(time.Second)
				expiresAt = &t
			}
			token, err := storage.NewStore(pool, nil).IssueShareToken(ctx, businessID, expiresAt)
			if err != nil {
				return fmt.Errorf("issue token for %q: %w", businessID, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			if expiresAt != nil {
				cmd.PrintErrf("expires at %s\n", expiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	c.Flags().StringVar(&businessID, "business", "", "business id")
	c.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, 0 for no expiry (e.g. 720h)")
	_ = c.MarkFlagRequired("business")
	return c
}

func newTokenRevokeCmd() *cobra.Command {
	var businessID, token string

	c := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an active share token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := storage.NewStore(pool, nil).RevokeShareToken(ctx, businessID, token); err != nil {
				return fmt.Errorf("revoke token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "revoked")
			return nil
		},
	}
	c.Flags().StringVar(&businessID, "business", "", "business id")
	c.Flags().StringVar(&token, "token", "", "raw share token")
	_ = c.MarkFlagRequired("business")
	_ = c.MarkFlagRequired("token")
	return c
}
