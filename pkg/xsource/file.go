package xsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置数据格式。
type Format string

const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"
	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// defaultDebounce 文件监视的默认防抖时间。
// 编辑器保存文件通常产生多个连续事件，防抖将其合并为一次通知。
const defaultDebounce = 100 * time.Millisecond

// options 来源配置选项。
type options struct {
	root     string
	debounce time.Duration
}

// Option 来源配置选项函数。
type Option func(*options)

// WithRoot 设置根节点路径（以 . 分隔的层级路径）。
// 设置后 Values 仅返回根节点下的键值对，键名相对于根节点。
// 例如配置文件含 logging.AllLogs 时，WithRoot("logging") 使
// Values 返回 {"AllLogs": ...}。
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = strings.Trim(root, ".")
	}
}

// WithDebounce 设置文件监视的防抖时间。
// 在指定时间内的多次变更只触发一次通知，默认 100ms。
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func defaultOptions() *options {
	return &options{
		debounce: defaultDebounce,
	}
}

// fileSource 基于配置文件的来源实现。
//
// Values 每次调用重新读取文件，保证返回最新数据；
// Watch 基于 fsnotify 监视文件所在目录。
type fileSource struct {
	path   string
	format Format
	opts   *options

	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// 确保 fileSource 实现 Source 接口（编译时检查）。
var _ Source = (*fileSource)(nil)

// NewFile 创建基于配置文件的来源。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
// 创建时读取一次文件以验证路径和格式的有效性。
func NewFile(path string, opts ...Option) (Source, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	f := &fileSource{
		path:    path,
		format:  format,
		opts:    o,
		closeCh: make(chan struct{}),
	}

	// 预读一次，让路径错误和格式错误在创建时暴露
	if _, err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Values 读取配置文件并返回根节点下的键值快照。
func (f *fileSource) Values(_ context.Context) (map[string]string, error) {
	if f.closed.Load() {
		return nil, ErrSourceClosed
	}
	return f.load()
}

func (f *fileSource) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return parseValues(data, f.format, f.opts.root)
}

// Watch 监视配置文件变更。
//
// 监视文件所在目录而非文件本身：编辑器保存文件时可能先删除再创建，
// 直接监视文件会丢失事件。目录下其他文件的事件会被过滤掉。
func (f *fileSource) Watch(ctx context.Context) (<-chan Event, error) {
	if f.closed.Load() {
		return nil, ErrSourceClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xsource: create fs watcher: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("xsource: watch directory %s: %w", dir, err)
	}

	events := make(chan Event, 1)
	f.wg.Go(func() {
		defer close(events)
		defer func() { _ = fsWatcher.Close() }()
		f.runWatch(ctx, fsWatcher, events)
	})
	return events, nil
}

// runWatch 运行监视循环，带防抖的事件转发。
func (f *fileSource) runWatch(ctx context.Context, w *fsnotify.Watcher, events chan<- Event) {
	filename := filepath.Base(f.path)

	// 防抖定时器，初始为停止状态
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.closeCh:
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filename {
				continue
			}
			// Write: 直接修改；Create: 新建；Rename: 原子写入（写临时文件后 rename）
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(f.opts.debounce)

		case <-timer.C:
			select {
			case events <- Event{}:
			case <-ctx.Done():
				return
			case <-f.closeCh:
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			select {
			case events <- Event{Err: err}:
			case <-ctx.Done():
				return
			case <-f.closeCh:
				return
			}
		}
	}
}

// Close 关闭来源并停止全部监视 goroutine。
func (f *fileSource) Close() error {
	if f.closed.Swap(true) {
		return ErrSourceClosed
	}
	close(f.closeCh)
	f.wg.Wait()
	return nil
}

// bytesSource 基于内存字节数据的来源实现。
// 数据不可变，不支持监视。
type bytesSource struct {
	data   []byte
	format Format
	opts   *options
	closed atomic.Bool
}

var _ Source = (*bytesSource)(nil)

// NewBytes 从字节数据创建来源。
// 需要显式指定格式，适用于 K8s ConfigMap 等场景。
// 空数据创建空来源，Values 返回空 map。
// 数据不可变，Watch 返回 ErrWatchUnsupported，调用方应降级为纯轮询。
func NewBytes(data []byte, format Format, opts ...Option) (Source, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	b := &bytesSource{
		data:   append([]byte(nil), data...),
		format: format,
		opts:   o,
	}

	if len(data) > 0 {
		if _, err := parseValues(b.data, format, o.root); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Values 返回数据中根节点下的键值快照。
func (b *bytesSource) Values(_ context.Context) (map[string]string, error) {
	if b.closed.Load() {
		return nil, ErrSourceClosed
	}
	if len(b.data) == 0 {
		return map[string]string{}, nil
	}
	return parseValues(b.data, b.format, b.opts.root)
}

// Watch 不支持：字节数据不可变。
func (b *bytesSource) Watch(_ context.Context) (<-chan Event, error) {
	if b.closed.Load() {
		return nil, ErrSourceClosed
	}
	return nil, ErrWatchUnsupported
}

// Close 关闭来源。
func (b *bytesSource) Close() error {
	if b.closed.Swap(true) {
		return ErrSourceClosed
	}
	return nil
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// parseValues 解析数据并展平为根节点下的键值对。
// 根节点不存在时返回空 map 而非错误：配置文件可以合法地不含日志段。
func parseValues(data []byte, format Format, root string) (map[string]string, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if root != "" {
		k = k.Cut(root)
	}

	all := k.All()
	values := make(map[string]string, len(all))
	for key, val := range all {
		values[key] = fmt.Sprint(val)
	}
	return values, nil
}
