package xwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xfile"
)

// File 后端默认配置值。
const (
	// DefaultBaseName 基础名为空时使用的缺省值。
	DefaultBaseName = "log"

	// DefaultMaxFileBytes 单个日志文件的轮转阈值（5 MiB）。
	DefaultMaxFileBytes = 5 * 1024 * 1024

	// DefaultRetention 轮转文件的保留窗口（5 天）。
	DefaultRetention = 5 * 24 * time.Hour

	// rotateStampLayout 轮转文件名中时间戳的秒级部分，毫秒单独拼接。
	rotateStampLayout = "20060102-150405"

	// logFilePerm 日志文件权限。
	logFilePerm = 0o600
)

// fileConfig File 后端配置。
type fileConfig struct {
	rootDir   string
	maxBytes  int64
	retention time.Duration
	onError   func(error)
}

// FileOption File 后端配置选项函数。
type FileOption func(*fileConfig)

// WithRootDir 设置日志根目录。
// 默认为 <可执行文件所在目录>/Logs；每个基础名在根目录下拥有独立子目录。
func WithRootDir(dir string) FileOption {
	return func(c *fileConfig) {
		c.rootDir = dir
	}
}

// WithMaxFileBytes 设置单个文件的轮转阈值（字节）。
func WithMaxFileBytes(n int64) FileOption {
	return func(c *fileConfig) {
		c.maxBytes = n
	}
}

// WithRetention 设置轮转文件的保留窗口。
// 每次轮转时删除文件名时间戳早于此窗口的轮转文件。
func WithRetention(d time.Duration) FileOption {
	return func(c *fileConfig) {
		c.retention = d
	}
}

// WithOnError 设置内部错误回调。
//
// 排空周期内的 I/O 错误、保留清理失败等都经此回调上报后吞掉。
// 默认输出到 os.Stderr。
//
// 安全约束：回调不得向同一后端写入日志，否则会形成递归写入。
func WithOnError(fn func(error)) FileOption {
	return func(c *fileConfig) {
		c.onError = fn
	}
}

// File 按大小轮转、按时间命名的异步文件写入后端。
//
// Accept 把条目追加到无界 FIFO 队列并唤醒消费者后立即返回；专属消费者
// goroutine 是文件 I/O 的唯一执行者，两个线程绝不会并发写同一文件。
// 每个排空周期结束后释放文件句柄，空闲期间不持有句柄，便于外部检视
// 或搬移文件。
type File struct {
	base      string
	dir       string
	maxBytes  int64
	retention time.Duration
	onError   func(error)
	pattern   *regexp.Regexp

	mu    sync.Mutex
	queue []*xcore.Entry

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
	closed atomic.Bool

	// 以下字段仅由消费者 goroutine 访问
	curPath  string
	curBytes int64
	buf      []byte
}

// 编译时断言：File 实现 Backend 接口
var _ Backend = (*File)(nil)

// NewFile 创建文件写入后端并启动其消费者 goroutine。
//
// base 为空白时退化为 "log"。日志写入 <root>/<base>/ 目录，
// 文件命名为 {base}_{yyyyMMdd-HHmmss-fff}.log。
func NewFile(base string, opts ...FileOption) (*File, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseName
	}

	cfg := fileConfig{
		rootDir:   defaultRootDir(),
		maxBytes:  DefaultMaxFileBytes,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.maxBytes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxBytes, cfg.maxBytes)
	}
	if cfg.retention <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRetention, cfg.retention)
	}
	if cfg.onError == nil {
		cfg.onError = stderrOnError
	}

	dir, err := xfile.SanitizePath(filepath.Join(cfg.rootDir, base))
	if err != nil {
		return nil, err
	}

	f := &File{
		base:      base,
		dir:       dir,
		maxBytes:  cfg.maxBytes,
		retention: cfg.retention,
		onError:   cfg.onError,
		pattern: regexp.MustCompile(
			`^` + regexp.QuoteMeta(base) + `_(\d{8}-\d{6}-\d{3})\.log$`),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		buf:    make([]byte, 0, 512),
	}
	go f.run()
	return f, nil
}

// defaultRootDir 返回默认日志根目录：可执行文件所在目录下的 Logs。
// 可执行文件路径不可得时退化为工作目录。
func defaultRootDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "Logs"
	}
	return filepath.Join(filepath.Dir(exe), "Logs")
}

// stderrOnError 默认的回退通道：日志设施自身的故障输出到标准错误。
func stderrOnError(err error) {
	fmt.Fprintf(os.Stderr, "logkit: %v\n", err)
}

// Accept 实现 Backend 接口。
// 仅追加队列并以非阻塞方式唤醒消费者，从调用方视角永不阻塞。
func (f *File) Accept(e *xcore.Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	if f.closed.Load() {
		return ErrClosed
	}

	f.mu.Lock()
	f.queue = append(f.queue, e)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
		// 消费者已有待处理的唤醒信号
	}
	return nil
}

// Stop 实现 Backend 接口。
// 发出停止信号并阻塞到消费者完成最后一次排空；返回时，Stop 之前
// Accept 的所有条目均已落盘。重复调用返回 [ErrClosed]。
func (f *File) Stop() error {
	if f.closed.Swap(true) {
		return ErrClosed
	}
	close(f.stopCh)
	<-f.done
	return nil
}

// run 消费者主循环：阻塞等待唤醒或停止信号，被唤醒后排空整个队列。
// 收到停止信号时做最后一次排空后退出。
func (f *File) run() {
	defer close(f.done)
	for {
		select {
		case <-f.wake:
			f.drainCycle()
		case <-f.stopCh:
			f.drainCycle()
			return
		}
	}
}

// drainCycle 单个排空周期：取走整个队列，按需轮转，逐条写入当前文件，
// 周期结束释放文件句柄。任何错误（包括 panic）都被吞掉——消费者
// goroutine 只能由 Stop 终止。
func (f *File) drainCycle() {
	defer func() {
		if rec := recover(); rec != nil {
			f.onError(fmt.Errorf("xwriter: drain cycle panic: %v", rec))
		}
	}()

	f.mu.Lock()
	batch := f.queue
	f.queue = nil
	f.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var out *os.File
	defer func() {
		// 排空周期之间不持有文件句柄
		if out != nil {
			if err := out.Close(); err != nil {
				f.onError(err)
			}
		}
	}()

	for _, e := range batch {
		f.buf = e.AppendLine(f.buf[:0])
		line := f.buf

		// 轮转条件：尚无当前文件，或写入本条后将超出阈值。
		// 条目永远不会跨文件拆分。
		if f.curPath == "" || (f.curBytes > 0 && f.curBytes+int64(len(line)) > f.maxBytes) {
			if out != nil {
				if err := out.Close(); err != nil {
					f.onError(err)
				}
				out = nil
			}
			f.rotate(time.Now())
		}

		if out == nil {
			opened, err := f.openCurrent()
			if err != nil {
				// 打开失败：本周期剩余条目丢弃（尽力而为，不向调用方传播）
				f.onError(err)
				return
			}
			out = opened
		}

		n, err := out.Write(line)
		f.curBytes += int64(n)
		if err != nil {
			f.onError(err)
		}
	}
}

// openCurrent 以追加模式打开当前文件，必要时重建目录。
func (f *File) openCurrent() (*os.File, error) {
	if err := xfile.EnsureDir(f.curPath); err != nil {
		return nil, fmt.Errorf("xwriter: ensure dir: %w", err)
	}
	out, err := os.OpenFile(f.curPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("xwriter: open %s: %w", f.curPath, err)
	}
	return out, nil
}

// rotate 选定新的当前文件并触发保留清理。
// 毫秒内连续轮转时（仅在极小阈值的测试场景出现）递增时间戳，
// 保证新文件名不与任何已存在的轮转文件冲突。
func (f *File) rotate(now time.Time) {
	candidate := f.fileName(now)
	for fileExists(candidate) {
		now = now.Add(time.Millisecond)
		candidate = f.fileName(now)
	}
	f.curPath = candidate
	f.curBytes = 0
	f.cleanupExpired(now)
}

// fileExists 报告路径是否已存在。
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fileName 返回 now 时刻对应的轮转文件完整路径。
func (f *File) fileName(now time.Time) string {
	name := fmt.Sprintf("%s_%s-%03d.log",
		f.base, now.Format(rotateStampLayout), now.Nanosecond()/int(time.Millisecond))
	return filepath.Join(f.dir, name)
}

// cleanupExpired 删除文件名时间戳早于保留窗口的轮转文件。
//
// 创建时刻取自文件名中嵌入的时间戳而非文件系统元数据——轮转文件名
// 即创建时刻，且不受复制、搬移对元数据的扰动。清理是尽力而为：
// 任何失败仅上报 OnError，绝不中断写入。
func (f *File) cleanupExpired(now time.Time) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			f.onError(fmt.Errorf("xwriter: retention scan: %w", err))
		}
		return
	}

	cutoff := now.Add(-f.retention)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := f.pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		created, err := parseRotateStamp(m[1])
		if err != nil {
			continue
		}
		if created.After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil {
			f.onError(fmt.Errorf("xwriter: retention remove %s: %w", entry.Name(), err))
		}
	}
}

// parseRotateStamp 解析轮转文件名中的 yyyyMMdd-HHmmss-fff 时间戳。
func parseRotateStamp(s string) (time.Time, error) {
	base, err := time.ParseInLocation(rotateStampLayout, s[:len(rotateStampLayout)], time.Local)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := time.ParseDuration(s[len(rotateStampLayout)+1:] + "ms")
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(ms), nil
}
