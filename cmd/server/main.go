package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/config"
	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/database"
	applogger "github.com/MateoHeras77/ShiftTradeAV/pkg/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "shifttrade",
		Short:         "换班申请服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newFlightsCmd(),
		newEmployeesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap 加载配置并初始化日志
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// openDB 连接数据库并执行迁移
func openDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
}
