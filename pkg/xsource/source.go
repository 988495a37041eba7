package xsource

import "context"

// Event 变更通知事件。
//
// 事件仅提示"配置可能已变更"，不携带新值。
// 收到事件后应调用 Values 重新读取完整快照，
// 这保证了即使事件丢失或合并，轮询读取仍能收敛到最新配置。
type Event struct {
	// Key 发生变更的键名（相对于根节点）。
	// 无法确定具体键时为空字符串，表示"根下任意键可能变更"。
	Key string

	// Err 监视过程中的错误（如 etcd 连接中断）。
	// 非 nil 时 Key 字段无意义。监视会在内部自动恢复，
	// 此字段仅供调用方观测，无需据此采取行动。
	Err error
}

// Source 级别配置的外部来源。
//
// 实现必须是并发安全的。Values 与 Watch 可以被不同 goroutine 同时调用。
type Source interface {
	// Values 返回根节点下全部叶子键值对的快照。
	// 每次调用读取最新数据，返回的 map 归调用方所有。
	// 来源不可达或数据损坏时返回错误，调用方应保留旧配置。
	Values(ctx context.Context) (map[string]string, error)

	// Watch 订阅变更通知。
	// 返回的通道在 Source 关闭或 ctx 取消时关闭。
	// 不支持监视的实现返回 ErrWatchUnsupported。
	Watch(ctx context.Context) (<-chan Event, error)

	// Close 关闭来源并释放资源（文件监视器、etcd 连接等）。
	// 幂等：重复调用返回 ErrSourceClosed。
	Close() error
}
