// Package logger 构造进程级 zerolog 实例。
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
)

// New 按配置创建日志器；Console 为 true 时输出人类可读格式
func New(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop 丢弃所有输出，供测试使用
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
