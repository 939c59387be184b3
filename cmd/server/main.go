package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/rewards-hub-backend/api"
	"github.com/SlpAus/rewards-hub-backend/internal/admin"
	"github.com/SlpAus/rewards-hub-backend/internal/challenge"
	"github.com/SlpAus/rewards-hub-backend/internal/freespins"
	"github.com/SlpAus/rewards-hub-backend/internal/leaderboard"
	"github.com/SlpAus/rewards-hub-backend/internal/milestone"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/backup"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/config"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/database"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/health"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/middleware"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/shutdown"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/startup"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
	"github.com/SlpAus/rewards-hub-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		panic(fmt.Sprintf("初始化日志失败: %v", err))
	}
	gin.SetMode(cfg.Server.Mode)
	validation.Register()

	ctx := context.Background()

	// 1. 主存储
	var store kvstore.Store
	runID := func(context.Context) (string, error) { return "memory", nil }
	switch cfg.Store.Driver {
	case "redis":
		rdb, err := database.InitRedis(ctx, cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("无法连接到Redis")
		}
		defer rdb.Close()
		store = kvstore.NewRedisStore(rdb, cfg.Store.KeyPrefix)
		runID = func(ctx context.Context) (string, error) { return database.RunID(ctx, rdb) }
	default:
		logger.Warn("使用内存存储，进程退出后数据只保留在快照中。")
		store = kvstore.NewMemoryStore()
	}

	// 2. 快照数据库
	var snapshots *backup.Service
	if cfg.Database.Snapshot.Driver != "" {
		db, err := database.OpenSnapshotDB(cfg.Database.Snapshot)
		if err != nil {
			logger.WithError(err).Fatal("无法打开快照数据库")
		}
		snapshots = backup.NewService(db, store, backup.Layout{
			Collections: []string{
				leaderboard.EntriesCollection,
				milestone.Collection,
				challenge.Collection,
				freespins.Collection,
			},
			Docs: []string{leaderboard.SettingsPath},
		})
	}

	// 3. 首次启动初始化
	if err := startup.InitializeApplication(ctx, snapshots); err != nil {
		logger.WithError(err).Fatal("应用初始化失败，无法启动")
	}

	// 4. 健康检查
	checker := health.NewChecker(runID, startup.RebuildStore(snapshots))
	if err := checker.Initialize(ctx); err != nil {
		logger.WithError(err).Fatal("获取初始Run ID失败")
	}

	// 5. 后台服务
	gracefulManager := lifecycle.NewManager("graceful", logger.Log)
	forcefulManager := lifecycle.NewManager("forceful", logger.Log)

	checkerHandle, err := gracefulManager.NewServiceHandle("health-checker")
	if err != nil {
		logger.WithError(err).Fatal("注册健康检查器失败")
	}
	go checker.Start(checkerHandle)

	var finalSnapshot func(ctx context.Context) error
	if snapshots != nil {
		gh, err := gracefulManager.NewServiceHandle("snapshot-scheduler")
		if err != nil {
			logger.WithError(err).Fatal("注册快照调度器失败")
		}
		fh, err := forcefulManager.NewServiceHandle("snapshot-scheduler")
		if err != nil {
			logger.WithError(err).Fatal("注册快照调度器失败")
		}
		go snapshots.StartScheduler(gh, fh, cfg.Database.Snapshot.Interval, checker.Healthy)

		finalSnapshot = func(ctx context.Context) error {
			if !checker.Healthy() {
				return errors.New("主存储不可用，跳过最终快照")
			}
			_, err := snapshots.Snapshot(ctx)
			return err
		}
	}

	// 6. 路由
	adminHandler, err := admin.NewHandler(admin.Config{
		Enabled:    cfg.Admin.Enabled,
		Password:   cfg.Admin.Password,
		JWTSecret:  cfg.Admin.JWTSecret,
		SessionTTL: cfg.Admin.SessionTTL,
	})
	if err != nil {
		logger.WithError(err).Fatal("初始化管理后台失败")
	}
	if cfg.Admin.Enabled && cfg.Admin.Password == "" {
		logger.Warn("admin.password 未设置，所有写操作都将无法通过鉴权。")
	}

	router := api.NewRouter(cfg.Server, api.Handlers{
		Leaderboard: leaderboard.NewHandler(
			leaderboard.NewEntryRepository(store, time.Now),
			leaderboard.NewSettingsRepository(store, time.Now),
		),
		Milestones: milestone.NewHandler(milestone.NewRepository(store, time.Now)),
		Challenges: challenge.NewHandler(challenge.NewRepository(store, time.Now)),
		FreeSpins:  freespins.NewHandler(freespins.NewRepository(store, time.Now)),
		Admin:      adminHandler,
		Health:     checker.Handler,
		Metrics:    middleware.NewMetrics(),
		Limiter:    middleware.NewIPRateLimiter(cfg.RateLimit.ClaimsPerMinute, cfg.RateLimit.Burst),
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("服务器已准备就绪，开始监听 %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("服务器启动失败")
		}
	}()

	// 7. 阻塞直到收到停机信号
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager, finalSnapshot)
	coordinator.ListenForSignalsAndShutdown(server)
}
