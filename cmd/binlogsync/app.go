package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/gsoultan/binlogsync/internal/chfanout"
	"github.com/gsoultan/binlogsync/internal/config"
	"github.com/gsoultan/binlogsync/internal/driver"
	"github.com/gsoultan/binlogsync/internal/feed"
	"github.com/gsoultan/binlogsync/internal/gateway"
	"github.com/gsoultan/binlogsync/internal/lock"
	"github.com/gsoultan/binlogsync/internal/logging"
	"github.com/gsoultan/binlogsync/internal/metrics"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/push"
	"github.com/gsoultan/binlogsync/internal/resolve"
	"github.com/gsoultan/binlogsync/internal/sink"
	"github.com/gsoultan/binlogsync/internal/watermark"
)

// app bundles every wired component a run/sync-once/push-once invocation
// needs. Built once at process start from config.Config, mirroring the
// teacher's cmd/hermod main building one engine.Registry up front and
// handing it to whichever mode (api/worker) runs.
type app struct {
	cfg *config.Config
	log *logging.Logger

	db       *sql.DB
	redis    *redis.Client
	gwClient *gateway.Client
	runLock  *lock.RedisLock
	wmStore  *watermark.Store
	chFanout *chfanout.Fanout
	chErrs   []error

	orgResolver  *resolve.OrgResolver
	userResolver *resolve.UserResolver

	replyLog   *push.ReplyLog
	pushParser *push.PushResultParser
	mssClient  *push.MSSClient
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logging.New(cfg.LogFormat, cfg.LogLevel)

	if err := config.ApplyVaultOverrides(ctx, cfg); err != nil {
		return nil, fmt.Errorf("apply vault overrides: %w", err)
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if cfg.MySQL.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MySQL.MaxOpen)
	}
	if cfg.MySQL.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MySQL.MaxIdle)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	gwClient := gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Source:  cfg.Gateway.SourceAppID,
		Target:  cfg.Gateway.TargetAppID,
		Mode:    cfg.Gateway.Mode,
		Sync:    cfg.Gateway.Sync,
	})

	var chFanout *chfanout.Fanout
	var chErrs []error
	if len(cfg.ClickHouse.Hosts) > 0 {
		chFanout, chErrs = chfanout.Dial(chfanout.Config{
			Hosts:    cfg.ClickHouse.Hosts,
			Ports:    cfg.ClickHouse.Ports,
			User:     cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
			Database: cfg.ClickHouse.Database,
		})
		for _, e := range chErrs {
			log.Error("clickhouse node dial failed", "error", e)
		}
	}

	replyLog, err := push.NewReplyLog(cfg.Idempotency.DSN)
	if err != nil {
		return nil, fmt.Errorf("open reply log: %w", err)
	}
	pushParser := push.NewPushResultParser(db)
	mssClient := push.NewMSSClientFromConfig(cfg.MSS, replyLog, pushParser)

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        redisClient,
		gwClient:     gwClient,
		runLock:      lock.NewRedisLock(redisClient),
		wmStore:      watermark.New(db),
		chFanout:     chFanout,
		chErrs:       chErrs,
		orgResolver:  resolve.NewOrgResolver(gwClient),
		userResolver: resolve.NewUserResolver(gwClient),
		replyLog:     replyLog,
		pushParser:   pushParser,
		mssClient:    mssClient,
	}, nil
}

func (a *app) Close() {
	a.replyLog.Close()
	if a.chFanout != nil {
		a.chFanout.Close()
	}
	a.db.Close()
	a.redis.Close()
}

// lockKey and lockTTL bound the single-holder mutex a sync run acquires
// before reading the watermark, per spec.md §5's "one concurrent run" rule.
const (
	lockKey         = "binlogsync:run"
	lockTTL         = 2 * time.Minute
	lockRetryBudget = 5 * time.Second
	lockRetryPeriod = 200 * time.Millisecond
)

// SyncOnce runs one full binlog sync pass: acquire the run lock, compute
// the pull window off the last watermark, drain both the org and user
// feeds through their resolver chains, commit the resulting batches, and
// advance the watermark — all while still holding the lock, per
// spec.md §4.4/§5. Grounded on binlog_sync.rs's top-level run loop.
func (a *app) SyncOnce(ctx context.Context) error {
	started := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RunDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}()

	handle, err := a.runLock.AcquireWithRetry(ctx, lockKey, lockTTL, lockRetryBudget, lockRetryPeriod)
	if err != nil {
		metrics.LockAcquireFailures.WithLabelValues(lockKey).Inc()
		outcome = "lock_error"
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if handle == nil {
		metrics.LockAcquireFailures.WithLabelValues(lockKey).Inc()
		outcome = "lock_busy"
		return fmt.Errorf("another sync run is already in progress")
	}
	defer a.runLock.Release(ctx, handle)

	prevMs, err := a.wmStore.Get(ctx)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read watermark: %w", err)
	}
	nowMs := time.Now().UnixMilli()
	window := feed.ComputeWindow(prevMs, nowMs, feed.DefaultBackSkewMs, feed.DefaultForwardCapMs)
	metrics.WatermarkLagSeconds.Set(float64(nowMs-prevMs) / 1000)

	f := feed.New(a.gwClient)

	orgProc := driver.NewOrgProcessor(a.orgResolver)
	orgDriver := driver.New(orgProc, time.Now)
	if serr := f.ForEach(ctx, model.DataTypeOrg, window, func(logs []model.ChangeLog) error {
		unresolved, permanent := orgDriver.Run(ctx, logs)
		a.recordOutcomes("org", logs, unresolved, permanent)
		return nil
	}); serr != nil {
		outcome = "error"
		return fmt.Errorf("drain org feed: %w", serr)
	}

	userProc := driver.NewUserProcessor(a.userResolver)
	userDriver := driver.New(userProc, time.Now)
	if serr := f.ForEach(ctx, model.DataTypeUser, window, func(logs []model.ChangeLog) error {
		unresolved, permanent := userDriver.Run(ctx, logs)
		a.recordOutcomes("user", logs, unresolved, permanent)
		return nil
	}); serr != nil {
		outcome = "error"
		return fmt.Errorf("drain user feed: %w", serr)
	}

	mysqlSink := sink.NewMySQLSink(a.db)
	orgBatch := orgProc.Batch()
	if err := mysqlSink.CommitOrgBatch(ctx, orgBatch); err != nil {
		outcome = "error"
		return fmt.Errorf("commit org batch: %w", err)
	}
	userBatch := userProc.Batch()
	if err := mysqlSink.CommitUserBatch(ctx, userBatch); err != nil {
		outcome = "error"
		return fmt.Errorf("commit user batch: %w", err)
	}

	// Best-effort derived-table refresh, in its own transaction after the
	// main commit — a failure here is logged, never blocks watermark
	// advance, per spec.md §4.9/refresh_mc_user_ztk.
	if err := mysqlSink.RefreshOrgShow(ctx, orgBatch); err != nil {
		a.log.Error("refresh mc_org_show failed", "error", err)
	}
	if err := mysqlSink.RefreshUserZtk(ctx, userBatch); err != nil {
		a.log.Error("refresh mc_user_ztk failed", "error", err)
	}

	if err := a.wmStore.Save(ctx, window.EndMs); err != nil {
		outcome = "error"
		return fmt.Errorf("advance watermark: %w", err)
	}

	a.log.Info("sync run completed", "window_start", window.StartMs, "window_end", window.EndMs,
		"orgs", len(orgBatch.Orgs), "users", len(userBatch.Users))
	return nil
}

func (a *app) recordOutcomes(kind string, logs []model.ChangeLog, unresolved []model.ChangeLog, permanent []driver.PermanentFailure) {
	resolved := len(logs) - len(unresolved) - len(permanent)
	metrics.LogsProcessed.WithLabelValues(kind, "resolved").Add(float64(resolved))
	metrics.LogsProcessed.WithLabelValues(kind, "unresolved").Add(float64(len(unresolved)))
	metrics.LogsProcessed.WithLabelValues(kind, "permanent").Add(float64(len(permanent)))
	for _, p := range permanent {
		a.log.Warn("change log failed permanently", "kind", kind, "cid", p.Log.CID, "reason", p.Reason)
	}
}

// PushOnce runs one MSS push/reconcile pass for the class-training push
// task, the one PsnDataWrapper variant this engine implements end to end.
func (a *app) PushOnce(ctx context.Context, hitDate string, ids []string) error {
	task := &push.BaseTask{
		DB:         a.db,
		MSS:        a.mssClient,
		ClickHouse: a.chFanout,
		ReplyLog:   a.replyLog,
		Log:        a.log,
		HitDate:    hitDate,
		IDs:        ids,
	}
	return push.ExecutePushTask(ctx, task, push.ClassPushTask{})
}
