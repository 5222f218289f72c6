// 包 logger：统一初始化与获取日志器；通过环境变量控制级别、格式与源码位置
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
)

// ParseLevel：解析日志级别文本，未知值回退 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New：按给定输出、级别与格式（text/json）构造日志器
func New(w io.Writer, lvl slog.Level, format string, addSource bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl, AddSource: addSource}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup：初始化进程级默认日志器
// 背景：LOG_LEVEL / LOG_FORMAT / LOG_SOURCE 三个变量集中控制输出；须在 godotenv 加载之后调用。
// 约束：输出固定为标准错误。
func Setup() *slog.Logger {
	l := New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"), os.Getenv("LOG_SOURCE") == "true")
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Setup()
	}
	return l
}
