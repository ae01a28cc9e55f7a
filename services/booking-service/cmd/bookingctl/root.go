package main

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/sharebook/libs/config"
	"github.com/md-rashed-zaman/sharebook/libs/db"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Operate the booking service: schema migrations, share tokens and smoke bookings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(".env")
		},
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newBookCmd())
	return root
}

func openPool(ctx context.Context) (*db.Pool, error) {
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: 2})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pool, nil
}
