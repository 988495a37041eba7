// Package xsource 提供日志级别配置的外部来源抽象。
//
// 日志系统的级别配置存放在一个层级化的键值存储中（文件、内存、etcd），
// xsource 将这些存储统一为 Source 接口：读取当前键值快照、订阅变更通知、
// 关闭释放资源。xlogger 的配置监视器基于此接口实现级别热更新。
//
// # 内置实现
//
//   - NewFile: 从 YAML/JSON 配置文件读取，基于 fsnotify 监视文件变更
//   - NewBytes: 从内存字节数据读取（K8s ConfigMap 等场景），不支持监视
//   - NewMemory: 进程内内存存储，支持运行时写入，适合测试和嵌入场景
//   - NewEtcd: 从 etcd 前缀读取，基于 etcd Watch 订阅变更并自动重连
//
// # 键值约定
//
// Source 返回根节点下的叶子键值对。日志级别配置使用两类键：
//
//   - AllLogs: 全局默认级别
//   - {日志名}: 指定日志的级别覆盖
//
// 值为级别名称（Trace/Debug/Info/Warn/Error/Fatal/None），解析由调用方负责。
//
// # 变更通知
//
// Watch 返回事件通道，通道在 Source 关闭或 context 取消时关闭。
// 不支持监视的实现（如 NewBytes）返回 ErrWatchUnsupported，
// 调用方应降级为纯轮询。事件仅表示"可能发生了变更"，
// 收到事件后应调用 Values 重新读取完整快照。
//
// # 使用示例
//
//	src, err := xsource.NewFile("/etc/app/logging.yaml", xsource.WithRoot("logging"))
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	values, err := src.Values(ctx)
//	if err != nil {
//	    return err
//	}
//	level := values["AllLogs"]
package xsource
