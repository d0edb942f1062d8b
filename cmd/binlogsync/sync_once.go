package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gsoultan/binlogsync/internal/config"
)

var syncOnceCmd = &cobra.Command{
	Use:   "sync-once",
	Short: "Run a single binlog sync pass and exit",
	RunE:  runSyncOnce,
}

func runSyncOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(viper.GetString("configPath"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.SyncOnce(ctx)
}
