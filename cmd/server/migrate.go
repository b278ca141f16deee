package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移后退出",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openDB(cfg, logger)
			if err != nil {
				logger.Error("数据库迁移失败", zap.Error(err))
				return err
			}
			closeDB(db)
			logger.Info("数据库迁移完成")
			return nil
		},
	}
}
