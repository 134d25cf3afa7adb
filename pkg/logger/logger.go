package logger

import (
	"fmt"
	"io"
	"os"

	"smartqa_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 在 InitLogger 之前为 no-op，方便测试直接使用各服务
var Log = zap.NewNop()

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "time",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Level 显式配置优先，否则 debug 模式为 Debug，其余为 Info
func Level(cfg config.LogConfig, mode string) (zapcore.Level, error) {
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return zap.InfoLevel, fmt.Errorf("log.level: %w", err)
		}
		return lvl, nil
	}
	if mode == "debug" {
		return zap.DebugLevel, nil
	}
	return zap.InfoLevel, nil
}

// New 文件输出为 JSON 并按 lumberjack 滚动；console 为 nil 时只写文件
func New(cfg config.LogConfig, mode string, console io.Writer) (*zap.Logger, error) {
	level, err := Level(cfg, mode)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			}),
			level,
		),
	}
	if console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(console),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}

func InitLogger(cfg *config.Config) {
	l, err := New(cfg.Log, cfg.Server.Mode, os.Stdout)
	if err != nil {
		// 级别写错时退回默认级别，不阻止启动
		fallback := cfg.Log
		fallback.Level = ""
		l, _ = New(fallback, cfg.Server.Mode, os.Stdout)
		l.Warn("invalid log level, using default", zap.String("level", cfg.Log.Level), zap.Error(err))
	}
	Log = l
}
