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
	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/internal/api/handler"
	"github.com/MateoHeras77/ShiftTradeAV/internal/api/router"
	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
	"github.com/MateoHeras77/ShiftTradeAV/internal/service"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/jwt"
	applogger "github.com/MateoHeras77/ShiftTradeAV/pkg/logger"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/mailer"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/redis"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// 1. 配置与日志
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// 2. 数据库连接与迁移
	db, err := openDB(cfg, logger)
	if err != nil {
		logger.Error("数据库初始化失败", zap.Error(err))
		return err
	}
	defer closeDB(db)

	// 3. Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，限流与 Token 黑名单功能将不可用", zap.Error(err))
		rdb = nil
	}

	// 4. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	deps := service.Deps{
		Config: cfg,
		Repo:   repository.NewRepository(db),
		JWT:    jwtMgr,
		Mailer: mailer.New(&cfg.Mail, applogger.Component(logger, "mailer")),
		Logger: logger,
	}
	// nil 客户端不能装进接口，否则 Logout 会对 nil 指针调用
	if rdb != nil {
		deps.Blacklist = rdb
	}
	svc, err := service.NewService(deps)
	if err != nil {
		logger.Error("初始化服务失败", zap.Error(err))
		return err
	}
	h := handler.NewHandler(svc)

	// 5. 路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, applogger.Component(logger, "http"))

	// 6. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 7. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("HTTP 服务器异常", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
	return nil
}
