// Package xwriter 提供日志条目的写入后端与扇出注册表。
//
// # 后端模型
//
// [Backend] 是写入后端的最小能力集：接收条目（Accept）与停止并冲刷
// （Stop）。[Registry] 持有零个或多个后端，按注册顺序把每条通过门控的
// 条目转发给所有后端；单个后端的失败被隔离，不影响其余后端。
//
// # 当前实现
//
//   - [NewFile]: 按大小轮转、按时间命名的异步文件写入器（核心实现）。
//     Accept 仅入队并唤醒消费者，从不阻塞调用方；专属消费者 goroutine
//     是文件 I/O 的唯一执行者。
//   - [NewLumberjack]: 基于 lumberjack v2 的同步后端变体，保持单一稳定
//     文件名、重命名备份的轮转方式，适合需要固定路径采集的场景。
//
// # 轮转与保留
//
// File 后端的新文件命名为 {base}_{yyyyMMdd-HHmmss-fff}.log，位于
// <root>/<base>/ 目录下；当前文件累计写入超过阈值（默认 5 MiB）时开启
// 新文件。每次轮转时扫描目录，删除文件名时间戳早于保留窗口（默认 5 天）
// 的轮转文件；清理是尽力而为，失败只上报 OnError 回调。
//
// # 失败语义
//
// 日志设施不得成为宿主应用的故障源：排空周期内的任何 I/O 错误都在
// OnError 上报后吞掉，消费者 goroutine 从不因异常退出，只能由 Stop
// 显式终止。OnError 回调不得向同一后端写入数据（递归写入风险），
// 默认回调输出到 os.Stderr。
//
// # 停止契约
//
// [File.Stop] 发出停止信号并阻塞到消费者 goroutine 完成最后一次排空后
// 退出——Stop 返回时，停止前入队的所有条目均已落盘。
package xwriter
