package xlogger

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain 验证测试结束后没有 goroutine 泄漏。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
