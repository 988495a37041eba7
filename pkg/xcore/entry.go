package xcore

import (
	"strconv"
	"time"
)

// timeLayout 行格式时间戳布局，毫秒精度。
const timeLayout = "2006-01-02 15:04:05.000"

// Entry 一条日志记录。
//
// 在调用方 goroutine 上构造一次（通过门控之后），随后以只读方式
// 交给各 writer 后端，构造后不再修改。
type Entry struct {
	// Time 记录创建时刻的墙钟时间，渲染为毫秒精度。
	Time time.Time

	// Level 条目的严重性级别。
	Level Level

	// Caller 发起记录的函数标识（如 "server.handleConn"）。
	// 捕获失败时为空字符串，条目仍然输出。
	Caller string

	// GID 记录发生时所在 goroutine 的 id。
	GID int64

	// Message 任意文本，不保证 ASCII 安全。
	Message string
}

// NewEntry 构造日志记录，时间戳与 goroutine id 在此刻捕获。
func NewEntry(level Level, caller, message string) *Entry {
	return &Entry{
		Time:    time.Now(),
		Level:   level,
		Caller:  caller,
		GID:     GoroutineID(),
		Message: message,
	}
}

// AppendLine 将条目按行格式追加到 b 并返回扩展后的切片（含换行符）。
//
// 行格式：
//
//	{yyyy-MM-dd HH:mm:ss.fff}:[tid:{gid}] {LEVEL} [{caller}]: {message}
//
// 设计决策: 使用 AppendFormat/AppendInt 在调用方缓冲区上拼接，
// 排空循环可复用同一缓冲区，避免每条日志一次字符串分配。
func (e *Entry) AppendLine(b []byte) []byte {
	b = e.Time.AppendFormat(b, timeLayout)
	b = append(b, ":[tid:"...)
	b = strconv.AppendInt(b, e.GID, 10)
	b = append(b, "] "...)
	b = append(b, e.Level.String()...)
	b = append(b, " ["...)
	b = append(b, e.Caller...)
	b = append(b, "]: "...)
	b = append(b, e.Message...)
	b = append(b, '\n')
	return b
}

// Line 返回条目的行格式字符串（含换行符）。
func (e *Entry) Line() string {
	return string(e.AppendLine(nil))
}
