package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
	"github.com/MateoHeras77/ShiftTradeAV/internal/service"
)

func newEmployeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "员工名册管理",
	}
	cmd.AddCommand(newEmployeesImportCmd())
	return cmd
}

func newEmployeesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "从 YAML 文件导入员工名册",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("打开名册文件失败: %w", err)
			}
			defer f.Close()

			db, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB(db)

			svc := service.NewEmployeeService(repository.NewRepository(db), logger)
			result, err := svc.ImportRoster(cmd.Context(), f)
			if err != nil {
				logger.Error("导入名册失败", zap.String("file", args[0]), zap.Error(err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "新增 %d 人\n", result.Created)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "跳过 %d 人（姓名或邮箱已存在）: %s\n",
					len(result.Skipped), strings.Join(result.Skipped, ", "))
			}
			return nil
		},
	}
}
