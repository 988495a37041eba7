package xwriter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/omeyang/logkit/pkg/xcore"
)

// Registry 写入后端的扇出注册表。
//
// 后端按注册顺序保存并按此顺序接收条目与停止信号；同一实例重复注册为
// 空操作（按标识去重）。注册表的增删是低频操作，由互斥锁保护；Publish
// 在锁内做切片快照、在锁外遍历，容忍与 Add/Remove 并发。
//
// 跨后端的条目顺序不是正确性保证——各后端是相互独立的接收端。
type Registry struct {
	mu       sync.Mutex
	backends []Backend
}

// NewRegistry 创建空注册表。
func NewRegistry() *Registry {
	return &Registry{}
}

// Add 注册后端。nil 后端与已注册的同一实例被忽略。
func (r *Registry) Add(b Backend) {
	if b == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.backends {
		if have == b {
			return
		}
	}
	r.backends = append(r.backends, b)
}

// Remove 注销后端。未注册的实例被忽略。
func (r *Registry) Remove(b Backend) {
	if b == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.backends {
		if have == b {
			r.backends = append(r.backends[:i], r.backends[i+1:]...)
			return
		}
	}
}

// Len 返回当前注册的后端数量。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.backends)
}

// Publish 把条目转发给所有已注册后端。
//
// 单个后端的错误或 panic 被隔离，不阻止向其余后端转发；所有失败以
// errors.Join 形式返回，供测试与 OnError 上报观察。门面层丢弃此返回值
// ——日志失败不得向业务逻辑传播。
func (r *Registry) Publish(e *xcore.Entry) error {
	if e == nil {
		return ErrNilEntry
	}

	r.mu.Lock()
	snapshot := make([]Backend, len(r.backends))
	copy(snapshot, r.backends)
	r.mu.Unlock()

	var errs []error
	for _, b := range snapshot {
		if err := accept(b, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// accept 调用单个后端的 Accept，并把 panic 折算为错误。
func accept(b Backend, e *xcore.Entry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("xwriter: backend panic: %v", rec)
		}
	}()
	return b.Accept(e)
}

// StopAll 按注册顺序停止所有后端，等待每个后端完成后再停止下一个。
// 总停机延迟是各后端停机延迟之和。返回所有失败的合并错误。
func (r *Registry) StopAll() error {
	r.mu.Lock()
	snapshot := make([]Backend, len(r.backends))
	copy(snapshot, r.backends)
	r.mu.Unlock()

	var errs []error
	for _, b := range snapshot {
		if err := b.Stop(); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
