package xlogger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xsource"
)

// allLogsKey 全局默认级别的键名。
const allLogsKey = "AllLogs"

// configWatcher 级别配置监视器。
//
// 独占一个后台 goroutine：订阅来源的变更通知，并以 pollInterval
// 为上限兜底轮询。每次唤醒（事件或超时）都重新读取来源并调和级别，
// 因此即使事件丢失或来源不支持监视，级别也会在一个轮询周期内收敛。
//
// 设计决策: 调和失败时保留当前级别。配置短暂不可达不应使正在
// 正常输出的日志突然改变行为，收敛交给后续轮询。
type configWatcher struct {
	name    string
	source  xsource.Source
	level   *xcore.LevelVar
	poll    time.Duration
	onError func(error)

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
	stopped atomic.Bool
}

func newConfigWatcher(name string, source xsource.Source, level *xcore.LevelVar, poll time.Duration, onError func(error)) *configWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &configWatcher{
		name:    name,
		source:  source,
		level:   level,
		poll:    poll,
		onError: onError,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start 启动监视 goroutine。幂等。
//
// 订阅在本方法内同步建立：Start 返回后来源的变更通知已被捕获，
// 紧随其后的配置变更不会落入订阅建立前的窗口而丢失。
func (w *configWatcher) Start() {
	if w.started.Swap(true) {
		return
	}
	events := w.subscribe()
	go w.run(events)
}

// Stop 停止监视：发出信号并等待 goroutine 退出。幂等。
func (w *configWatcher) Stop() {
	if w.stopped.Swap(true) {
		return
	}
	w.cancel()
	if w.started.Load() {
		<-w.done
	}
}

func (w *configWatcher) run(events <-chan xsource.Event) {
	defer close(w.done)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.reconcile()

		case ev, ok := <-events:
			if !ok {
				// 事件通道关闭（来源关闭或监视失败），降级为纯轮询
				events = nil
				continue
			}
			if ev.Err != nil {
				w.onError(fmt.Errorf("xlogger: source watch: %w", ev.Err))
				continue
			}
			w.reconcile()
		}
	}
}

// subscribe 订阅来源变更。
// 来源不支持监视时返回 nil 通道，循环退化为纯轮询。
func (w *configWatcher) subscribe() <-chan xsource.Event {
	events, err := w.source.Watch(w.ctx)
	if err != nil {
		if !errors.Is(err, xsource.ErrWatchUnsupported) {
			w.onError(fmt.Errorf("xlogger: source watch: %w", err))
		}
		return nil
	}
	return events
}

// reconcile 读取来源并调和级别。
// 每次迭代单独 recover，单次失败不终止监视 goroutine。
func (w *configWatcher) reconcile() {
	defer func() {
		if r := recover(); r != nil {
			w.onError(fmt.Errorf("xlogger: reconcile panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(w.ctx, w.poll)
	defer cancel()

	values, err := w.source.Values(ctx)
	if err != nil {
		w.onError(fmt.Errorf("xlogger: read source: %w", err))
		return
	}
	if lv, ok := w.resolve(values); ok {
		w.level.Set(lv)
	}
}

// resolve 从键值快照解析生效级别。
// {日志名} 覆盖 AllLogs；两者均缺失或无法解析时返回 ok=false，
// 调用方保留当前级别。级别名称大小写敏感。
func (w *configWatcher) resolve(values map[string]string) (xcore.Level, bool) {
	for _, key := range []string{w.name, allLogsKey} {
		s, ok := values[key]
		if !ok {
			continue
		}
		lv, err := xcore.ParseLevel(s)
		if err != nil {
			w.onError(fmt.Errorf("xlogger: level for %q: %w", key, err))
			continue
		}
		return lv, true
	}
	return 0, false
}
