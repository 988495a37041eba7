package xcore

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strconv"
)

// Caller 返回向上 skip 层调用帧的函数标识，形如 "pkg.Func"。
//
// skip 的语义与 runtime.Caller 一致：0 为 Caller 自身的调用方。
// 解析失败时返回空字符串——调用方标识缺失不阻止条目输出。
func Caller(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	// fn.Name() 形如 "github.com/acme/app/server.(*Conn).handle"，
	// 取末段得到 "server.(*Conn).handle"
	return filepath.Base(fn.Name())
}

// goroutinePrefix runtime.Stack 首行的固定前缀。
var goroutinePrefix = []byte("goroutine ")

// GoroutineID 返回当前 goroutine 的 id。
//
// Go 运行时不直接暴露 goroutine id，此处解析 runtime.Stack 首行
// "goroutine N [running]:" 得到 N。行格式中的 tid 字段依赖此值来区分
// 并发调用方，解析失败时返回 0。
//
// 设计决策: 仅取 64 字节栈头且 all=false，单次调用开销在门控放行后的
// 慢路径上可以接受；被门控拦下的调用不会执行到这里。
func GoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	head := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	i := bytes.IndexByte(head, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(head[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
