package xfile

import "errors"

// 路径校验错误。
var (
	// ErrEmptyPath 路径为空。
	ErrEmptyPath = errors.New("xfile: empty path")

	// ErrNullByte 路径包含空字节。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrPathTraversal 路径包含 ".." 穿越段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrDirectoryPath 路径以分隔符结尾，指向目录而非文件。
	ErrDirectoryPath = errors.New("xfile: path denotes a directory")
)
