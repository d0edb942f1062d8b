package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gsoultan/binlogsync/internal/config"
)

var (
	pushOnceDate string
	pushOnceIDs  []string
)

var pushOnceCmd = &cobra.Command{
	Use:   "push-once",
	Short: "Run a single MSS push/reconcile pass for a hit date (or explicit ids) and exit",
	RunE:  runPushOnce,
}

func init() {
	pushOnceCmd.Flags().StringVar(&pushOnceDate, "date", "", "hit date to push (YYYY-MM-DD); defaults to yesterday if neither --date nor --ids is set")
	pushOnceCmd.Flags().StringSliceVar(&pushOnceIDs, "ids", nil, "explicit training ids to push, instead of a date")
}

func runPushOnce(cmd *cobra.Command, args []string) error {
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

	return a.PushOnce(ctx, pushOnceDate, pushOnceIDs)
}
