package xsource

import "errors"

// 错误定义。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xsource: path is empty")

	// ErrUnsupportedFormat 不支持的配置格式。
	// 文件来源根据扩展名检测格式，仅支持 .yaml/.yml 和 .json。
	ErrUnsupportedFormat = errors.New("xsource: unsupported format")

	// ErrLoadFailed 配置数据读取失败。
	ErrLoadFailed = errors.New("xsource: load failed")

	// ErrParseFailed 配置数据解析失败。
	ErrParseFailed = errors.New("xsource: parse failed")

	// ErrSourceClosed 来源已关闭。
	// Close 之后调用 Values 或 Watch 返回此错误。
	ErrSourceClosed = errors.New("xsource: source is closed")

	// ErrWatchUnsupported 来源不支持变更监视。
	// 调用方收到此错误时应降级为纯轮询（定期调用 Values）。
	ErrWatchUnsupported = errors.New("xsource: watch not supported")

	// ErrNilConfig etcd 配置为空。
	ErrNilConfig = errors.New("xsource: etcd config is nil")

	// ErrNoEndpoints 未配置 etcd 端点。
	ErrNoEndpoints = errors.New("xsource: no etcd endpoints configured")
)

// IsWatchUnsupported 检查错误是否为不支持监视。
func IsWatchUnsupported(err error) bool {
	return errors.Is(err, ErrWatchUnsupported)
}
