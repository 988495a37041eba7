// Package xcore 定义日志管线的叶子数据类型。
//
// # 核心类型
//
//   - [Level]: 全序日志级别（Trace < Debug < Info < Warn < Error < Fatal < None），
//     [LevelNone] 为哨兵值，禁用所有输出
//   - [LevelVar]: 单字原子级别单元，热路径无锁读取，写入方为 Setup 与配置监视器
//   - [Entry]: 不可变日志记录（时间戳、级别、调用方标识、goroutine id、消息）
//
// # 行格式
//
// [Entry.Line] 按固定格式渲染一行纯文本：
//
//	2006-01-02 15:04:05.000:[tid:42] INFO [pkg.Func]: message
//
// 时间戳为毫秒精度的墙钟时间；tid 为记录发生时所在 goroutine 的 id；
// 调用方标识可能为空（捕获失败时条目仍然输出）。
//
// # 级别解析
//
// [ParseLevel] 对规范名称（"Trace"、"Debug"、"Info"、"Warn"、"Error"、
// "Fatal"、"None"）做大小写敏感匹配——外部配置源中的级别值必须使用规范名称。
// [Level.String] 返回大写形式（用于行格式），[Level.Name] 返回规范名称
// （用于配置序列化，经 TextMarshaler/TextUnmarshaler 往返）。
package xcore
