package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log 全局日志实例
var Log *zap.Logger

// Init 初始化日志
// debug 模式下输出彩色控制台日志，生产模式输出 JSON
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		log.Printf("Failed to build zap logger: %v, falling back to default", err)
		l = zap.NewNop()
	}

	Log = l
}

// Sync 刷新缓冲区，在程序退出前调用
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	// 在 Init 被调用前提供一个可用的默认 logger，避免空指针
	if os.Getenv("APP_ENV") == "prod" {
		Log, _ = zap.NewProduction()
	} else {
		Log, _ = zap.NewDevelopment()
	}
}
