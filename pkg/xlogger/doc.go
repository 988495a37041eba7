// Package xlogger 提供进程内异步日志的门面。
//
// 门面将 xcore（日志条目与级别）、xwriter（异步写入后端）和
// xsource（外部级别配置来源）组装成一个开箱即用的日志入口：
// 调用方只需一次 Setup，之后通过级别方法写日志，级别热更新、
// 文件轮转和清理全部在后台完成。
//
// # 静默降级
//
// 日志记录不应影响宿主业务：本包的全部操作都不向调用方返回错误。
// 初始化失败、写入失败、配置读取失败一律通过 WithOnError 回调
// （默认写 os.Stderr）观测，日志调用自身永远安全。
//
// 未初始化或级别配置缺失时级别为 None，不输出任何日志。
// 这是故障安全默认值：配置系统不可用时宁可不写日志，
// 也不以猜测的级别写日志。
//
// # 使用示例
//
//	src, err := xsource.NewFile("/etc/app/logging.yaml", xsource.WithRoot("logging"))
//	if err != nil {
//	    // 来源创建失败时仍可 Setup(name, nil)，日志保持关闭
//	}
//	logger := xlogger.New()
//	logger.Setup("payment", src)
//	defer logger.Stop()
//
//	logger.Info("service started")
//	logger.Logf(xcore.LevelWarn, "retry %d/%d", attempt, max)
//
//	// 消息构造昂贵时使用延迟形式，门未开则完全不构造
//	if sink, ok := logger.At(xcore.LevelDebug); ok {
//	    sink(expensiveDump())
//	}
//
// # 级别配置
//
// 级别存放在外部键值来源中，键名约定：
//
//   - AllLogs: 全局默认级别
//   - {日志名}: 指定日志的级别覆盖（优先于 AllLogs）
//
// 值为级别名称，大小写敏感（Trace/Debug/Info/Warn/Error/Fatal/None）。
// 配置监视器订阅来源变更并以 5 秒为上限轮询兜底；
// 读取或解析失败时保留当前级别不变。
//
// # 全局 Logger
//
// 与显式持有 Logger 并列，包级函数操作进程全局默认实例：
// Setup/Trace/Debug/Info/Warn/Error/Fatal/Logf/At/Stop。
// 适用于脚手架、小工具等简单场景；服务端推荐依赖注入。
package xlogger
