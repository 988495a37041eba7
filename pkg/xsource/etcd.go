package xsource

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdKV 定义 etcd KV 读取接口，用于依赖注入和测试。
// 接口方法与 clientv3.KV 保持一致。
type etcdKV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// etcdWatcher 定义 etcd Watch 接口，用于依赖注入和测试。
// 接口方法与 clientv3.Watcher 保持一致。
type etcdWatcher interface {
	Watch(ctx context.Context, key string, opts ...clientv3.OpOption) clientv3.WatchChan
}

// etcdClient 组合接口，包含来源需要的全部 etcd 操作。
// *clientv3.Client 实现了此接口。
type etcdClient interface {
	etcdKV
	etcdWatcher
	Close() error
}

// 确保 *clientv3.Client 实现 etcdClient 接口（编译时检查）。
var _ etcdClient = (*clientv3.Client)(nil)

// etcd 连接与重连的默认参数。
const (
	defaultEtcdPrefix      = "/logging/"
	defaultEtcdDialTimeout = 5 * time.Second
	defaultProbeTimeout    = 3 * time.Second
	defaultRewatchDelay    = 500 * time.Millisecond
	defaultRewatchMaxDelay = 10 * time.Second
)

// EtcdConfig etcd 来源配置。
// 支持 JSON/YAML 反序列化。
type EtcdConfig struct {
	// Endpoints etcd 服务端点列表，必填。
	// 格式：["host1:port1", "host2:port2"]
	Endpoints []string `json:"endpoints" yaml:"endpoints"`

	// Username 用户名（可选）。
	Username string `json:"username" yaml:"username"`

	// Password 密码（可选）。
	Password string `json:"password" yaml:"password"`

	// DialTimeout 连接超时。零值时使用默认值 5 秒。
	DialTimeout time.Duration `json:"dialTimeout" yaml:"dialTimeout"`

	// Prefix 键前缀，级别配置存放在此前缀下。
	// 零值时使用默认值 "/logging/"。始终规范化为以 / 结尾。
	Prefix string `json:"prefix" yaml:"prefix"`
}

// applyDefaults 返回应用了默认值的配置副本。
func (c *EtcdConfig) applyDefaults() *EtcdConfig {
	cfg := *c
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultEtcdDialTimeout
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultEtcdPrefix
	}
	if !strings.HasSuffix(cfg.Prefix, "/") {
		cfg.Prefix += "/"
	}
	return &cfg
}

// etcdSource 基于 etcd 的来源实现。
//
// Values 读取前缀下全部键值；Watch 基于 etcd Watch 订阅变更，
// 连接中断时以指数退避自动重建 Watch。
type etcdSource struct {
	client etcdClient
	prefix string

	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

var _ Source = (*etcdSource)(nil)

// NewEtcd 创建基于 etcd 的来源。
// 配置至少需要 Endpoints，其余字段零值时使用默认值。
func NewEtcd(cfg *EtcdConfig) (Source, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	cfg = cfg.applyDefaults()

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("xsource: create etcd client: %w", err)
	}
	return newEtcdSource(client, cfg.Prefix), nil
}

// newEtcdSource 从已建立的客户端创建来源，便于测试时注入 mock。
func newEtcdSource(client etcdClient, prefix string) *etcdSource {
	return &etcdSource{
		client:  client,
		prefix:  prefix,
		closeCh: make(chan struct{}),
	}
}

// Values 读取前缀下全部键值的快照。
// 返回的键名已去除前缀。
func (s *etcdSource) Values(ctx context.Context) (map[string]string, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	values := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(string(kv.Key), s.prefix)
		if key == "" {
			continue
		}
		values[key] = string(kv.Value)
	}
	return values, nil
}

// Watch 订阅前缀下的变更通知。
// 返回的通道在 ctx 取消或来源关闭时关闭。
// Watch 失败时发送带错误的事件并自动重建，调用方无需处理重连。
func (s *etcdSource) Watch(ctx context.Context) (<-chan Event, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	wctx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 1)

	// Close 时取消 watch context，使 etcd Watch 通道关闭
	s.wg.Go(func() {
		select {
		case <-s.closeCh:
			cancel()
		case <-wctx.Done():
		}
	})

	s.wg.Go(func() {
		defer close(events)
		defer cancel()
		s.runWatch(wctx, events)
	})
	return events, nil
}

// runWatch 运行 Watch 循环。
// etcd Watch 通道可能因网络错误或 compaction 关闭，
// 此时先探测连通性（指数退避），成功后重建 Watch。
func (s *etcdSource) runWatch(ctx context.Context, events chan<- Event) {
	for {
		watchCh := s.client.Watch(ctx, s.prefix, clientv3.WithPrefix())

		if !s.forwardEvents(ctx, watchCh, events) {
			return
		}
		if !s.waitReconnect(ctx) {
			return
		}
	}
}

// forwardEvents 转发一条 Watch 通道上的事件。
// 返回 false 表示应退出循环，true 表示应重建 Watch。
func (s *etcdSource) forwardEvents(ctx context.Context, watchCh clientv3.WatchChan, events chan<- Event) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case resp, ok := <-watchCh:
			if !ok {
				// 通道关闭：context 取消时退出，否则重建
				return ctx.Err() == nil
			}
			if err := resp.Err(); err != nil {
				s.sendEvent(ctx, events, Event{Err: err})
				return true
			}
			for _, ev := range resp.Events {
				// 对 Kv 做 nil 守卫，防止异常响应引发 panic
				if ev.Kv == nil {
					continue
				}
				key := strings.TrimPrefix(string(ev.Kv.Key), s.prefix)
				if !s.sendEvent(ctx, events, Event{Key: key}) {
					return false
				}
			}
		}
	}
}

// waitReconnect 以指数退避探测 etcd 连通性，直到成功或 context 取消。
// 返回 false 表示 context 已取消。
func (s *etcdSource) waitReconnect(ctx context.Context) bool {
	err := retry.New(
		retry.Context(ctx),
		retry.UntilSucceeded(),
		retry.Delay(defaultRewatchDelay),
		retry.MaxDelay(defaultRewatchMaxDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		probeCtx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
		defer cancel()
		_, err := s.client.Get(probeCtx, s.prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly(), clientv3.WithLimit(1))
		return err
	})
	return err == nil
}

// sendEvent 发送事件，返回 false 表示 context 已取消。
func (s *etcdSource) sendEvent(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close 关闭来源：停止全部 Watch goroutine 并关闭 etcd 连接。
func (s *etcdSource) Close() error {
	if s.closed.Swap(true) {
		return ErrSourceClosed
	}
	close(s.closeCh)
	s.wg.Wait()
	return s.client.Close()
}
