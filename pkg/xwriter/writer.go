package xwriter

import "github.com/omeyang/logkit/pkg/xcore"

// Backend 写入后端接口。
//
// 扩展新实现时，必须满足以下约定：
//   - Accept 必须是并发安全的，且不得长时间阻塞调用方
//   - Stop 返回后，Stop 之前 Accept 的条目必须已被持久消费
//   - Stop 之后调用 Accept 应返回 [ErrClosed]
type Backend interface {
	// Accept 接收一条日志条目。
	// 条目在交付后为只读，后端不得修改。
	Accept(e *xcore.Entry) error

	// Stop 停止后端并冲刷未写出的条目，阻塞到完成。
	// 重复调用应返回 [ErrClosed]。
	Stop() error
}
