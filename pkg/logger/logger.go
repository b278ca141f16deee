package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MateoHeras77/ShiftTradeAV/config"
)

// ServiceName 写入每条日志的 service 字段
const ServiceName = "shifttrade"

// NewLogger 根据配置初始化 Zap 日志实例
//
//   - json：生产格式，ISO8601 时间，不采样，不附带堆栈
//   - console：本地开发，彩色级别
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		// 每次提交、接受、审批都要留痕，相同消息不能被采样丢弃
		zapCfg.Sampling = nil
		zapCfg.DisableStacktrace = true
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("无效的日志格式 %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	logger, err := zapCfg.Build(zap.Fields(zap.String("service", ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}
	return logger, nil
}

// Component 为子系统派生命名日志器，如 "mailer"、"http"
func Component(l *zap.Logger, name string) *zap.Logger {
	return l.Named(name)
}
