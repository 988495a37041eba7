package xsource

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
)

// Memory 进程内内存来源。
//
// 支持运行时写入并通知订阅者，适合测试和配置内嵌场景。
// 所有方法并发安全。零值不可用，必须通过 NewMemory 创建。
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	subs   []chan Event

	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// 确保 Memory 实现 Source 接口（编译时检查）。
var _ Source = (*Memory)(nil)

// NewMemory 创建内存来源。
// initial 为初始键值，可以为 nil。
func NewMemory(initial map[string]string) *Memory {
	m := &Memory{
		values:  make(map[string]string, len(initial)),
		closeCh: make(chan struct{}),
	}
	maps.Copy(m.values, initial)
	return m
}

// Values 返回当前键值快照。
func (m *Memory) Values(_ context.Context) (map[string]string, error) {
	if m.closed.Load() {
		return nil, ErrSourceClosed
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values), nil
}

// Set 写入键值并通知全部订阅者。
// 来源已关闭时静默忽略。
func (m *Memory) Set(key, value string) {
	if m.closed.Load() {
		return
	}
	m.mu.Lock()
	m.values[key] = value
	m.notifyLocked(key)
	m.mu.Unlock()
}

// Delete 删除键并通知全部订阅者。
// 键不存在时仍发送通知，保持与 Set 一致的行为。
func (m *Memory) Delete(key string) {
	if m.closed.Load() {
		return
	}
	m.mu.Lock()
	delete(m.values, key)
	m.notifyLocked(key)
	m.mu.Unlock()
}

// notifyLocked 向全部订阅通道发送事件。
// 必须持有 m.mu 调用。通道已满时丢弃事件：
// 订阅方收到任意事件后会重新读取完整快照，合并通知不丢失信息。
func (m *Memory) notifyLocked(key string) {
	for _, ch := range m.subs {
		select {
		case ch <- Event{Key: key}:
		default:
		}
	}
}

// Watch 订阅变更通知。
// 返回的通道在 ctx 取消或来源关闭时关闭。
func (m *Memory) Watch(ctx context.Context) (<-chan Event, error) {
	if m.closed.Load() {
		return nil, ErrSourceClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sub := make(chan Event, 1)
	out := make(chan Event, 1)

	m.mu.Lock()
	m.subs = append(m.subs, sub)
	m.mu.Unlock()

	// 转发 goroutine：退出时注销订阅并关闭对外通道
	m.wg.Go(func() {
		defer close(out)
		defer m.unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.closeCh:
				return
			case ev := <-sub:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				case <-m.closeCh:
					return
				}
			}
		}
	})
	return out, nil
}

// unsubscribe 从订阅列表移除通道。
func (m *Memory) unsubscribe(sub chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ch := range m.subs {
		if ch == sub {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// Close 关闭来源，停止全部订阅转发 goroutine。
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return ErrSourceClosed
	}
	close(m.closeCh)
	m.wg.Wait()
	return nil
}
