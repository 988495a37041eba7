package xcore

import (
	"fmt"
	"sync/atomic"
)

// Level 日志级别，全序枚举。
// 既用于调用门控（level >= 当前级别时放行），也用于严重性排序。
type Level int8

// 级别常量。LevelNone 为哨兵值：作为当前级别时禁用所有输出，
// 作为条目级别时永远不会通过门控。
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelNone
)

// levelNames 规范名称表，下标即级别值。
// ParseLevel 与 Name 共用此表，保证解析与序列化严格往返。
var levelNames = [...]string{"Trace", "Debug", "Info", "Warn", "Error", "Fatal", "None"}

// levelUpper 行格式中使用的大写形式。
var levelUpper = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "NONE"}

// Valid 报告级别值是否在枚举范围内。
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelNone
}

// String 返回级别的大写表示，用于日志行格式。
// 范围外的值返回 "UNKNOWN(n)" 形式。
func (l Level) String() string {
	if l.Valid() {
		return levelUpper[l]
	}
	return fmt.Sprintf("UNKNOWN(%d)", int8(l))
}

// Name 返回级别的规范名称（"Trace"…"None"）。
// 外部配置源中的级别值使用此形式。
func (l Level) Name() string {
	if l.Valid() {
		return levelNames[l]
	}
	return fmt.Sprintf("UNKNOWN(%d)", int8(l))
}

// MarshalText 实现 encoding.TextMarshaler 接口，输出规范名称。
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("xcore: invalid level %d", int8(l))
	}
	return []byte(l.Name()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler 接口。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析规范名称为日志级别。
//
// 设计决策: 匹配大小写敏感——配置源中的级别值是一个小而固定的受控词表，
// 宽松匹配只会掩盖配置错误；解析失败时监视器保留旧级别，不会造成中断。
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	return LevelNone, fmt.Errorf("xcore: unknown level %q", s)
}

// LevelVar 进程级有效级别单元。
//
// 热路径上每次日志调用都会读取一次，因此读写均为单字原子操作，
// 不持锁、不会出现撕裂值。写入方只有两个：Setup（初始化值）与
// 配置监视器（外部变更）。
//
// 零值的当前级别为 LevelTrace；需要失效安全默认值的使用方应在
// 启用前显式 Set(LevelNone)。
type LevelVar struct {
	v atomic.Int32
}

// NewLevelVar 创建指定初始级别的 LevelVar。
func NewLevelVar(l Level) *LevelVar {
	lv := &LevelVar{}
	lv.Set(l)
	return lv
}

// Level 原子读取当前级别。
func (lv *LevelVar) Level() Level {
	return Level(lv.v.Load())
}

// Set 原子写入当前级别。
func (lv *LevelVar) Set(l Level) {
	lv.v.Store(int32(l))
}

// Enabled 报告指定级别的条目是否应当输出。
// LevelNone 条目永远不输出；当前级别为 LevelNone 时禁用全部输出。
func (lv *LevelVar) Enabled(l Level) bool {
	if l >= LevelNone || l < LevelTrace {
		return false
	}
	return l >= lv.Level()
}
