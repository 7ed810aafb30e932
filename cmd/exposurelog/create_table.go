package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/container"
	"github.com/lsst-sqre/exposurelog/common/bootstrap"
	"github.com/lsst-sqre/exposurelog/common/db"
)

func newCreateTableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-table",
		Short: "Create the message table and its indices if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createTable(cmd.Context())
		},
	}
}

func createTable(ctx context.Context) error {
	components, err := bootstrap.Setup(ctx, serviceName,
		bootstrap.WithoutRedis(),
		bootstrap.WithoutCache(),
		bootstrap.WithoutTelemetry(),
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			store, err := container.NewMessageStore(database)
			if err != nil {
				return err
			}
			return store.CreateSchema(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create message table: %w", err)
	}
	defer components.Shutdown(ctx)

	components.Logger.Info("message table ready", "driver", components.Config.Database.Driver)
	return nil
}
