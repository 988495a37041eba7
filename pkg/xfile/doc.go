// Package xfile 提供日志文件路径的安全检查与目录创建辅助。
//
// [SanitizePath] 做格式净化（空路径、空字节、相对路径穿越、显式目录路径），
// 不提供目录隔离语义；[EnsureDir] 确保文件的父目录存在（默认权限 0750）。
package xfile
