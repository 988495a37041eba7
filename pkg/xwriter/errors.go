package xwriter

import "errors"

// 后端与注册表错误。
var (
	// ErrClosed 后端已停止。
	ErrClosed = errors.New("xwriter: backend is closed")

	// ErrNilEntry 条目为 nil。
	ErrNilEntry = errors.New("xwriter: entry is nil")

	// ErrEmptyFilename lumberjack 后端的文件名为空。
	ErrEmptyFilename = errors.New("xwriter: filename is required")

	// ErrInvalidMaxBytes 轮转阈值无效（必须 > 0）。
	ErrInvalidMaxBytes = errors.New("xwriter: invalid max file bytes")

	// ErrInvalidRetention 保留窗口无效（必须 > 0）。
	ErrInvalidRetention = errors.New("xwriter: invalid retention window")
)
