package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/surecharge/internal/api/handlers"
	"github.com/langchou/surecharge/internal/autotune"
	"github.com/langchou/surecharge/internal/battery"
	"github.com/langchou/surecharge/internal/config"
	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/repository"
	"github.com/langchou/surecharge/internal/repository/memstore"
	"github.com/langchou/surecharge/internal/service"
	"github.com/langchou/surecharge/internal/state"
	"github.com/langchou/surecharge/pkg/ws"
)

// stores 各类存储，按配置选择 PostgreSQL 或内存实现
type stores struct {
	rules     service.RulesStore
	auto      service.AutoSettingsStore
	profiles  service.ProfileStore
	schedules service.ScheduleStore
	sessions  service.SessionStore
	kv        service.KVStore
	snapshot  service.SnapshotReader
	close     func()
}

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Surecharge",
		zap.String("port", cfg.ServerPort),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.Location.String()))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	clock := service.NewSystemClock(cfg.Location)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建服务
	rulesService := service.NewRulesService(logger, st.rules, st.auto, st.snapshot, clock, wsHub)
	profileService := service.NewProfileService(logger, st.profiles, rulesService)
	scheduleService := service.NewScheduleService(logger, st.schedules, rulesService)
	historyService := service.NewHistoryService(logger, st.sessions, st.kv, clock, cfg.HistoryDaysDefault)
	snoozeService := service.NewSnoozeService(logger, st.kv, clock)

	if err := profileService.EnsureDefaults(ctx); err != nil {
		logger.Fatal("Failed to seed default profiles", zap.Error(err))
	}

	// 充电会话跟踪，新记录推送给客户端
	tracker, err := state.NewTracker(ctx, logger, st.kv, st.sessions, func(cs models.ChargeSession) {
		wsHub.BroadcastMessage(ws.MsgTypeSessionRecorded, cs)
	})
	if err != nil {
		logger.Fatal("Failed to restore charge tracker", zap.Error(err))
	}

	monitorService := service.NewMonitorService(logger, tracker, snoozeService, rulesService, wsHub, clock)

	// 自动调优
	controller := autotune.NewController(logger, st.rules, st.auto, st.sessions, cfg.AutoTuneHistoryDays, nil)
	scheduler := autotune.NewScheduler(
		logger,
		service.NewAutoTuneRunner(logger, controller, rulesService, wsHub),
		cfg.AutoTuneInterval,
		cfg.AutoTuneInitialDelay,
	)
	scheduler.Schedule(ctx)

	// 电池轮询
	var poller *battery.Poller
	if cfg.BatterySource == config.BatterySourceSysfs {
		source := battery.NewSysfsSource(cfg.BatterySysfsPath, clock.Now)
		poller = battery.NewPoller(logger, source, monitorService, cfg.BatteryPollInterval)
		poller.Start(ctx)
	}

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, handlers.Services{
		Rules:     rulesService,
		Profiles:  profileService,
		Schedules: scheduleService,
		History:   historyService,
		Snooze:    snoozeService,
		Monitor:   monitorService,
		AutoTune:  scheduler,
	}, wsHub)
	wsHub.SetInitDataProvider(handler.InitData)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止后台任务
	if poller != nil {
		poller.Stop()
	}
	scheduler.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 等待未完成的充电记录写入
	tracker.Wait()
	cancel()

	logger.Info("Server exited")
}

// openStores 按配置打开存储
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		rules := memstore.NewRules()
		profiles := memstore.NewProfiles()
		schedules := memstore.NewSchedules()
		return &stores{
			rules:     rules,
			auto:      memstore.NewAutoSettings(),
			profiles:  profiles,
			schedules: schedules,
			sessions:  memstore.NewSessions(),
			kv:        memstore.NewKV(),
			snapshot:  &memstore.Snapshotter{Rules: rules, Schedules: schedules, Profiles: profiles},
			close:     func() {},
		}, nil
	}

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("Database migrated successfully")

	return &stores{
		rules:     repository.NewRulesRepository(db),
		auto:      repository.NewAutoSettingsRepository(db),
		profiles:  repository.NewProfileRepository(db),
		schedules: repository.NewScheduleRepository(db),
		sessions:  repository.NewSessionRepository(db),
		kv:        repository.NewKVRepository(db),
		snapshot:  repository.NewSnapshotRepository(db),
		close:     db.Close,
	}, nil
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
