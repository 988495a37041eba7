package xlogger_test

import (
	"fmt"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xlogger"
	"github.com/omeyang/logkit/pkg/xsource"
)

// printBackend 同步打印消息的演示后端。
type printBackend struct{}

func (printBackend) Accept(e *xcore.Entry) error {
	fmt.Printf("%s %s\n", e.Level, e.Message)
	return nil
}

func (printBackend) Stop() error { return nil }

func ExampleLogger_SetupWriter() {
	logger := xlogger.New()
	logger.SetupWriter(printBackend{}, xcore.LevelInfo)
	defer logger.Stop()

	logger.Debug("below the gate, dropped")
	logger.Info("service started")
	logger.Warn("disk usage high")

	// Output:
	// INFO service started
	// WARN disk usage high
}

func ExampleLogger_At() {
	logger := xlogger.New()
	logger.SetupWriter(printBackend{}, xcore.LevelWarn)
	defer logger.Stop()

	// 门未开时跳过昂贵的消息构造
	if sink, ok := logger.At(xcore.LevelDebug); ok {
		sink("expensive dump that is never built")
	}
	if sink, ok := logger.At(xcore.LevelError); ok {
		sink("connection lost")
	}

	// Output:
	// ERROR connection lost
}

func ExampleLogger_Setup() {
	// 内存来源便于演示；生产环境用 xsource.NewFile 或 xsource.NewEtcd
	src := xsource.NewMemory(map[string]string{
		"AllLogs": "Error",
		"payment": "Info",
	})
	defer src.Close()

	logger := xlogger.New()
	logger.Setup("payment", src,
		xlogger.WithBackend(printBackend{}),
	)
	defer logger.Stop()

	// payment 键覆盖 AllLogs，生效级别为 Info
	fmt.Println("level:", logger.Level())

	// Output:
	// level: INFO
}
