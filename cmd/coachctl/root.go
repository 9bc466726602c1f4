// Command coachctl runs administrative tasks against the coach-app database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"alcyxob/coach-app/internal/config"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "Administrative tasks for coach-app",
	Long: `coachctl runs maintenance tasks against the coach-app database.

It reads the same config.yaml and environment variables as the server.

  $ coachctl indexes                         # create or update MongoDB indexes
  $ coachctl seed-catalog --file catalog.yaml  # load exercises into the catalog`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
