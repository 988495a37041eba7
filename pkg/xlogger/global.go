package xlogger

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xwriter"
)

// =============================================================================
// 全局 Logger
//
// 定位：脚手架/小工具等简单场景。
// 在服务端推荐依赖注入（显式持有 Logger）。
// =============================================================================

// globalLogger 全局 Logger 实例（并发安全）
var globalLogger atomic.Pointer[Logger]

// globalMu 保护 globalOnce 及其 Do 执行（也用于 ResetDefault）
var globalMu sync.Mutex

// globalOnce 确保默认 Logger 只初始化一次
var globalOnce sync.Once

// defaultLogger 创建默认 Logger（惰性初始化）
//
// 设计决策: 在持锁状态下执行 once.Do，确保 ResetDefault（重置 globalOnce）
// 与 once.Do 之间不会发生并发竞争（覆盖 sync.Once 内部状态会导致 fatal）。
// 性能影响可忽略：初始化后 Default() 走 atomic.Load 快速路径，不进入此函数。
func defaultLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		// 未配置的 Logger：级别 None，Setup 之前全部日志调用无操作
		globalLogger.Store(New())
	})
	return globalLogger.Load()
}

// Default 返回全局默认 Logger
//
// 懒初始化：首次调用时创建未配置的 Logger（级别 None）。
// 并发安全：使用 sync.Once 和 atomic.Pointer。
func Default() *Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return defaultLogger()
}

// SetDefault 替换全局默认 Logger
//
// 用于测试或自定义配置场景。传入 nil 时操作被忽略。
// 要重置为默认 Logger，请使用 ResetDefault()。
func SetDefault(l *Logger) {
	if l == nil {
		// 拒绝 nil，避免后续全局函数 panic
		return
	}
	globalLogger.Store(l)
}

// ResetDefault 重置全局 Logger 为未初始化状态（仅用于测试）
//
// 调用后，下次 Default() 会重新创建默认 Logger。
// 注意：不会停止被替换的 Logger，需要时调用方先 Stop。
func ResetDefault() {
	globalMu.Lock()
	globalLogger.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// =============================================================================
// 便利函数：操作全局默认 Logger
// =============================================================================

// Setup 初始化全局默认 Logger。仅首次调用生效。
func Setup(name string, source Source, opts ...Option) {
	Default().Setup(name, source, opts...)
}

// SetupWriter 以显式后端和级别初始化全局默认 Logger。
func SetupWriter(backend xwriter.Backend, level xcore.Level) {
	Default().SetupWriter(backend, level)
}

// Log 使用全局 Logger 记录日志
// 全局函数直接调用内部方法并显式传递跳帧数，保证调用方定位正确
func Log(level xcore.Level, msg string) {
	Default().log(level, msg, 1)
}

// Logf 使用全局 Logger 按格式记录日志
// 级别门在格式化之前判定
func Logf(level xcore.Level, format string, args ...any) {
	l := Default()
	if !l.initialized.Load() || !l.level.Enabled(level) {
		return
	}
	l.log(level, fmt.Sprintf(format, args...), 1)
}

// At 返回全局 Logger 指定级别的延迟写入函数
func At(level xcore.Level) (func(msg string), bool) {
	return Default().at(level, 1)
}

// Trace 使用全局 Logger 记录 Trace 级别日志
func Trace(msg string) { Default().log(xcore.LevelTrace, msg, 1) }

// Debug 使用全局 Logger 记录 Debug 级别日志
func Debug(msg string) { Default().log(xcore.LevelDebug, msg, 1) }

// Info 使用全局 Logger 记录 Info 级别日志
func Info(msg string) { Default().log(xcore.LevelInfo, msg, 1) }

// Warn 使用全局 Logger 记录 Warn 级别日志
func Warn(msg string) { Default().log(xcore.LevelWarn, msg, 1) }

// Error 使用全局 Logger 记录 Error 级别日志
func Error(msg string) { Default().log(xcore.LevelError, msg, 1) }

// Fatal 使用全局 Logger 记录 Fatal 级别日志（不终止进程）
func Fatal(msg string) { Default().log(xcore.LevelFatal, msg, 1) }

// Stop 关停全局默认 Logger
func Stop() {
	Default().Stop()
}
