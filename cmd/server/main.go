package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Tonkaw007/Pabu/internal/api/handlers"
	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/config"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
	"github.com/Tonkaw007/Pabu/internal/repository/memory"
	"github.com/Tonkaw007/Pabu/internal/repository/postgres"
	"github.com/Tonkaw007/Pabu/internal/service"
	"github.com/Tonkaw007/Pabu/pkg/ws"
)

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

	logger.Info("Starting Pabu",
		zap.String("port", cfg.ServerPort),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("rate_version", cfg.Rates.Version))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	store, db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)

	// 创建服务
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	authSvc := service.NewAuthService(logger, store, hasher, tokens, cfg.IsAdminUsername)
	bookingSvc := service.NewBookingService(logger, store, cfg.Rates, wsHub)

	// 新连接先收到当前车位列表
	wsHub.SetInitDataProvider(func(connCtx context.Context) *ws.InitData {
		initCtx, initCancel := context.WithTimeout(connCtx, 5*time.Second)
		defer initCancel()
		slots, err := bookingSvc.ListSlots(initCtx, models.SlotFilter{})
		if err != nil {
			logger.Error("Failed to load slots for websocket init", zap.Error(err))
			return nil
		}
		return &ws.InitData{Slots: slots}
	})
	go wsHub.Run(ctx)

	// 超时巡检
	monitor := service.NewOverrunMonitor(logger, bookingSvc, cfg.OverrunSweepInterval)
	monitor.Start(ctx)

	// 创建 HTTP 处理器和路由
	handler := handlers.NewHandler(logger, authSvc, bookingSvc, wsHub)
	router := handlers.NewRouter(logger, handler, tokens, handlers.RouterConfig{
		Debug:          cfg.Debug,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
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
	monitor.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 关闭 WebSocket 连接
	cancel()

	logger.Info("Server exited")
}

// openStore 按 DB_DRIVER 创建存储，postgres 时同时执行迁移
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, *sql.DB, error) {
	if cfg.DBDriver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil, nil
	}

	db, err := postgres.Open(ctx, postgres.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	// 执行数据库迁移
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("Database migrated successfully")

	return postgres.NewStore(db), db, nil
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
