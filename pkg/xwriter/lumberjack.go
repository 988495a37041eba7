package xwriter

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xfile"
)

// Lumberjack 后端默认配置值。
const (
	// DefaultLumberjackMaxSizeMB 默认单个日志文件最大大小（MB）。
	DefaultLumberjackMaxSizeMB = 100

	// DefaultLumberjackMaxBackups 默认保留的备份文件数量。
	DefaultLumberjackMaxBackups = 7

	// DefaultLumberjackMaxAgeDays 默认保留备份的天数。
	DefaultLumberjackMaxAgeDays = 5
)

// lumberjackConfig Lumberjack 后端配置。
type lumberjackConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
}

// LumberjackOption Lumberjack 后端配置选项函数。
type LumberjackOption func(*lumberjackConfig)

// WithLumberjackMaxSize 设置单个日志文件最大大小（MB）。
func WithLumberjackMaxSize(mb int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxSizeMB = mb
	}
}

// WithLumberjackMaxBackups 设置保留的备份文件数量。
func WithLumberjackMaxBackups(n int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxBackups = n
	}
}

// WithLumberjackMaxAge 设置保留备份的天数。
func WithLumberjackMaxAge(days int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxAgeDays = days
	}
}

// WithLumberjackCompress 设置是否 gzip 压缩备份文件。
func WithLumberjackCompress(compress bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.compress = compress
	}
}

// WithLumberjackLocalTime 设置备份文件名是否使用本地时间（默认 UTC）。
func WithLumberjackLocalTime(local bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.localTime = local
	}
}

// Lumberjack 基于 lumberjack v2 的同步写入后端。
//
// 与 [File] 的时间命名轮转不同，lumberjack 保持单一稳定文件名，
// 轮转时把当前文件重命名为备份——适合采集端需要固定路径的场景。
// 行格式与 File 后端一致。
type Lumberjack struct {
	mu     sync.Mutex
	lj     *lumberjack.Logger
	buf    []byte
	closed atomic.Bool
}

// 编译时断言：Lumberjack 实现 Backend 接口
var _ Backend = (*Lumberjack)(nil)

// NewLumberjack 创建 lumberjack 写入后端。
func NewLumberjack(filename string, opts ...LumberjackOption) (*Lumberjack, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := lumberjackConfig{
		maxSizeMB:  DefaultLumberjackMaxSizeMB,
		maxBackups: DefaultLumberjackMaxBackups,
		maxAgeDays: DefaultLumberjackMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.maxSizeMB <= 0 {
		return nil, fmt.Errorf("%w: got %d MB", ErrInvalidMaxBytes, cfg.maxSizeMB)
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &Lumberjack{
		lj: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
		buf: make([]byte, 0, 512),
	}, nil
}

// Accept 实现 Backend 接口，同步写入。
func (l *Lumberjack) Accept(e *xcore.Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	if l.closed.Load() {
		return ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = e.AppendLine(l.buf[:0])
	if _, err := l.lj.Write(l.buf); err != nil {
		// Accept 与 Stop 之间存在 TOCTOU 窗口，后置检查保证
		// 关闭后的调用方稳定得到 ErrClosed 而非底层 I/O 错误
		if l.closed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("xwriter: lumberjack write: %w", err)
	}
	return nil
}

// Stop 实现 Backend 接口。
// 同步后端没有待冲刷队列，关闭底层文件即可。重复调用返回 [ErrClosed]。
func (l *Lumberjack) Stop() error {
	if l.closed.Swap(true) {
		return ErrClosed
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lj.Close()
}
