package xlogger

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xsource"
	"github.com/omeyang/logkit/pkg/xwriter"
)

// Source 级别配置来源的别名，使调用方无需直接导入 xsource。
type Source = xsource.Source

// Logger 进程内异步日志门面。
//
// 零值不可用，必须通过 New 创建。所有方法并发安全。
// 生命周期：New → Setup / SetupWriter（仅首次生效）→ 日志方法 → Stop。
// Stop 是终态：停止后级别回到 None，日志方法静默无操作，
// 不支持重新 Setup。
type Logger struct {
	mu       sync.Mutex
	name     string
	level    xcore.LevelVar
	registry *xwriter.Registry
	watcher  *configWatcher
	onError  func(error)

	// initialized 只置位一次。热路径只读此标志和 level，不加锁。
	initialized atomic.Bool
}

// New 创建未初始化的 Logger。
// 初始级别为 None：Setup 之前任何日志调用都是无操作。
func New() *Logger {
	l := &Logger{
		registry: xwriter.NewRegistry(),
		onError:  stderrOnError,
	}
	l.level.Set(xcore.LevelNone)
	return l
}

// Name 返回 Setup 时登记的日志名。
func (l *Logger) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// Level 返回当前生效级别。
func (l *Logger) Level() xcore.Level {
	return l.level.Level()
}

// Setup 初始化 Logger：注册滚动文件写入器、同步解析一次级别、
// 启动配置监视器。幂等：仅首次调用生效，后续调用静默忽略。
//
// name 是日志名，同时决定输出子目录和级别覆盖键；空白时使用默认名。
// source 为级别配置来源，可以为 nil：此时级别保持 None（故障安全），
// 直到显式 SetLevel。
//
// 不返回错误：部件初始化失败通过 WithOnError 回调观测，
// Logger 仍进入已初始化状态，日志调用保持安全。
func (l *Logger) Setup(name string, source Source, opts ...Option) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized.Load() {
		return
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	l.onError = cfg.onError

	name = strings.TrimSpace(name)
	if name == "" {
		name = xwriter.DefaultBaseName
	}
	l.name = name

	// 故障安全：在从来源成功解析出级别之前不输出任何日志
	l.level.Set(xcore.LevelNone)

	fileOpts := append([]xwriter.FileOption{xwriter.WithOnError(cfg.onError)}, cfg.fileOpts...)
	if fw, err := xwriter.NewFile(name, fileOpts...); err != nil {
		cfg.onError(fmt.Errorf("xlogger: create file writer: %w", err))
	} else {
		l.registry.Add(fw)
	}
	for _, b := range cfg.backends {
		l.registry.Add(b)
	}

	if source != nil {
		w := newConfigWatcher(name, source, &l.level, cfg.pollInterval, cfg.onError)
		// 同步解析一次，让 Setup 返回时级别已生效
		w.reconcile()
		w.Start()
		l.watcher = w
	}

	l.initialized.Store(true)
}

// SetupWriter 以显式后端和级别初始化 Logger，绕过配置来源与监视器。
// 便于测试和简单嵌入场景。幂等；backend 为 nil 时不进入已初始化状态。
func (l *Logger) SetupWriter(backend xwriter.Backend, level xcore.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized.Load() || backend == nil {
		return
	}
	l.registry.Add(backend)
	l.level.Set(level)
	l.initialized.Store(true)
}

// SetLevel 直接设置生效级别，越过配置来源。
// 监视器在下次成功调和时可能覆盖此值。
func (l *Logger) SetLevel(level xcore.Level) {
	l.level.Set(level)
}

// Enabled 报告指定级别当前是否会输出。
func (l *Logger) Enabled(level xcore.Level) bool {
	return l.initialized.Load() && l.level.Enabled(level)
}

// Log 记录一条日志。
// 未初始化或级别门未开时无操作。构造与发布过程的任何
// panic 都被吞掉：日志失败不传播到业务代码。
func (l *Logger) Log(level xcore.Level, msg string) {
	l.log(level, msg, 1)
}

// log 内部实现。skip 是业务代码与本方法之间的包装层数：
// 被公开方法直接转发时为 1。
func (l *Logger) log(level xcore.Level, msg string, skip int) {
	if !l.initialized.Load() || !l.level.Enabled(level) {
		return
	}
	defer func() { _ = recover() }()

	caller := xcore.Caller(skip + 1)
	_ = l.registry.Publish(xcore.NewEntry(level, caller, msg))
}

// Logf 按格式记录一条日志。
// 级别门在格式化之前判定：门未开时不执行 fmt.Sprintf。
func (l *Logger) Logf(level xcore.Level, format string, args ...any) {
	if !l.initialized.Load() || !l.level.Enabled(level) {
		return
	}
	l.log(level, fmt.Sprintf(format, args...), 1)
}

// At 返回指定级别的延迟写入函数。
//
// 级别门只在 At 调用时判定一次：ok 为 false 表示门未开，
// 调用方应跳过消息构造。调用方标识在 At 处捕获，
// 因此日志行中的调用方是调用 At 的函数而非闭包的调用点。
//
//	if sink, ok := logger.At(xcore.LevelDebug); ok {
//	    sink(expensiveDump())
//	}
func (l *Logger) At(level xcore.Level) (func(msg string), bool) {
	return l.at(level, 1)
}

// at 内部实现。skip 语义同 log。
func (l *Logger) at(level xcore.Level, skip int) (func(msg string), bool) {
	if !l.initialized.Load() || !l.level.Enabled(level) {
		return nil, false
	}
	caller := xcore.Caller(skip + 1)
	return func(msg string) {
		defer func() { _ = recover() }()
		_ = l.registry.Publish(xcore.NewEntry(level, caller, msg))
	}, true
}

// Trace 记录 Trace 级别日志。
func (l *Logger) Trace(msg string) { l.log(xcore.LevelTrace, msg, 1) }

// Debug 记录 Debug 级别日志。
func (l *Logger) Debug(msg string) { l.log(xcore.LevelDebug, msg, 1) }

// Info 记录 Info 级别日志。
func (l *Logger) Info(msg string) { l.log(xcore.LevelInfo, msg, 1) }

// Warn 记录 Warn 级别日志。
func (l *Logger) Warn(msg string) { l.log(xcore.LevelWarn, msg, 1) }

// Error 记录 Error 级别日志。
func (l *Logger) Error(msg string) { l.log(xcore.LevelError, msg, 1) }

// Fatal 记录 Fatal 级别日志。
// 只写日志，不终止进程：是否退出由调用方决定。
func (l *Logger) Fatal(msg string) { l.log(xcore.LevelFatal, msg, 1) }

// Stop 有序关停：先停配置监视器，再按注册顺序停止全部后端，
// 等待每个后端排空队列。幂等；Stop 后级别回到 None，
// 日志方法静默无操作。
func (l *Logger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized.Load() {
		return
	}

	// 先关级别门，让关停期间的新日志尽早变为无操作
	l.level.Set(xcore.LevelNone)

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if err := l.registry.StopAll(); err != nil {
		l.onError(fmt.Errorf("xlogger: stop backends: %w", err))
	}
}
