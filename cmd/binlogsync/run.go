package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gsoultan/binlogsync/internal/config"
	"github.com/gsoultan/binlogsync/internal/httpapi"
	"github.com/gsoultan/binlogsync/internal/schedule"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync engine: cron-scheduled binlog sync + MSS push, plus the trigger HTTP API",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(viper.GetString("configPath"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		a.log.Info("shutdown signal received")
		cancel()
	}()

	sched := schedule.New(a.log)
	if cfg.Schedule.BinlogSyncCron != "" {
		if _, err := sched.AddJob(ctx, "binlog-sync", cfg.Schedule.BinlogSyncCron, a.SyncOnce); err != nil {
			return fmt.Errorf("schedule binlog sync: %w", err)
		}
	}
	if cfg.Schedule.PushCron != "" {
		if _, err := sched.AddJob(ctx, "mss-push", cfg.Schedule.PushCron, func(ctx context.Context) error {
			return a.PushOnce(ctx, "", nil)
		}); err != nil {
			return fmt.Errorf("schedule mss push: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	server := httpapi.NewServer(a.log, a.SyncOnce, a.PushOnce)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: server.Routes(),
	}
	go func() {
		a.log.Info("trigger API starting", "port", cfg.HTTP.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("trigger API failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	a.log.Info("binlogsync shutdown complete")
	return nil
}
