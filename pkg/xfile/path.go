package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm 创建日志目录时使用的默认权限。
// 所有者读写执行、组读执行、其他用户无权限，符合 gosec G301 建议。
const DefaultDirPerm = 0o750

// SanitizePath 对文件路径做格式净化并返回规范化结果。
//
// 拒绝空路径、含空字节的路径、包含 ".." 独立路径段的路径，
// 以及以路径分隔符结尾的显式目录路径。绝对路径被接受——本函数
// 不提供沙箱隔离，只防止格式层面的穿越。
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return "", ErrNullByte
	}
	if hasDotDotSegment(path) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, path)
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
		return "", fmt.Errorf("%w: %q", ErrDirectoryPath, path)
	}
	return filepath.Clean(path), nil
}

// hasDotDotSegment 报告路径中是否存在恰好为 ".." 的独立段。
// '/' 与 '\' 都视为分隔符，以覆盖 Windows 风格的输入。
func hasDotDotSegment(path string) bool {
	for i := 0; i < len(path); {
		for i < len(path) && isSeparator(path[i]) {
			i++
		}
		j := i
		for j < len(path) && !isSeparator(path[j]) {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

// EnsureDir 确保 filename 的父目录存在，不存在时以 DefaultDirPerm 创建。
// 目录已存在时不修改其权限。
func EnsureDir(filename string) error {
	if filename == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(filename, 0) {
		return ErrNullByte
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, DefaultDirPerm)
}
