package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"UnyraSupport/internal/config"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// getLogger 懒加载全局logger，未配置日志路径时仅输出到控制台
func getLogger() *zap.Logger {
	once.Do(func() {
		encoderConf := zap.NewProductionEncoderConfig()
		encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder := zapcore.NewJSONEncoder(encoderConf)

		cores := []zapcore.Core{
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConf), zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		}

		logPath := config.GetConfig().LogConfig.LogPath
		if logPath != "" {
			// 使用 lumberjack 做日志切割
			writer := &lumberjack.Logger{
				Filename:   filepath.Join(logPath, "unyra_support.log"),
				MaxSize:    64, // MB
				MaxBackups: 7,
				MaxAge:     30, // days
				Compress:   true,
			}
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), zapcore.InfoLevel))
		}

		logger = zap.New(zapcore.NewTee(cores...), zap.AddCallerSkip(1))
	})
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	getLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	getLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	getLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	getLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	getLogger().Fatal(msg, fields...)
}
