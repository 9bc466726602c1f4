package main

import (
	"context"
	"fmt"
	"time"

	"alcyxob/coach-app/internal/repository/mongo"

	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	Long: `Create every index the server relies on, including the unique
(parent, order) indexes that guard session, exercise and set positions.
Existing indexes with the same definition are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := mongo.ConnectDB(cfg.Database)
		if err != nil {
			return err
		}
		defer mongo.DisconnectDB(client)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, client.Database(cfg.Database.Name)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "indexes are up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
