package xlogger

import (
	"fmt"
	"os"
	"time"

	"github.com/omeyang/logkit/pkg/xwriter"
)

// DefaultPollInterval 配置监视器的默认轮询间隔。
// 即使来源支持变更推送，监视器也以此间隔兜底轮询，
// 保证对 Stop 和丢失的事件保持响应。
const DefaultPollInterval = 5 * time.Second

// config Setup 配置。
type config struct {
	pollInterval time.Duration
	onError      func(error)
	fileOpts     []xwriter.FileOption
	backends     []xwriter.Backend
}

// Option Setup 配置选项。
type Option func(*config)

// WithPollInterval 设置配置监视器的轮询间隔。
// 非正值时使用默认值 5 秒。
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithOnError 设置内部错误的观测回调。
// 默认写入 os.Stderr。回调内禁止调用本 Logger，否则可能递归。
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// WithFileOptions 追加滚动文件写入器的选项（根目录、大小阈值、保留期等）。
func WithFileOptions(opts ...xwriter.FileOption) Option {
	return func(c *config) {
		c.fileOpts = append(c.fileOpts, opts...)
	}
}

// WithBackend 注册额外的写入后端，与默认的滚动文件写入器并存。
// nil 后端被忽略。
func WithBackend(b xwriter.Backend) Option {
	return func(c *config) {
		if b != nil {
			c.backends = append(c.backends, b)
		}
	}
}

func defaultConfig() *config {
	return &config{
		pollInterval: DefaultPollInterval,
		onError:      stderrOnError,
	}
}

// stderrOnError 默认错误回调。
// 写入 stderr 而非日志管道自身，避免错误处理递归产生日志。
func stderrOnError(err error) {
	fmt.Fprintf(os.Stderr, "xlogger: %v\n", err)
}
