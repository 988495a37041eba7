package xsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig 在临时目录创建配置文件并返回路径。
func writeTestConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewFile(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "空路径",
			path:    "",
			wantErr: ErrEmptyPath,
		},
		{
			name:    "不支持的扩展名",
			path:    "config.toml",
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "文件不存在",
			path:    filepath.Join(t.TempDir(), "missing.yaml"),
			wantErr: ErrLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFile(tt.path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("有效的YAML文件", func(t *testing.T) {
		path := writeTestConfig(t, "logging.yaml", "AllLogs: Info\n")
		src, err := NewFile(path)
		require.NoError(t, err)
		assert.NoError(t, src.Close())
	})

	t.Run("解析失败", func(t *testing.T) {
		path := writeTestConfig(t, "bad.json", "{not json")
		_, err := NewFile(path)
		assert.ErrorIs(t, err, ErrParseFailed)
	})
}

func TestFileSource_Values(t *testing.T) {
	const content = `
logging:
  AllLogs: Info
  payment: Debug
server:
  port: 8080
`

	t.Run("指定根节点", func(t *testing.T) {
		path := writeTestConfig(t, "config.yaml", content)
		src, err := NewFile(path, WithRoot("logging"))
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		values, err := src.Values(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"AllLogs": "Info",
			"payment": "Debug",
		}, values)
	})

	t.Run("不指定根节点返回完整路径键", func(t *testing.T) {
		path := writeTestConfig(t, "config.yaml", content)
		src, err := NewFile(path)
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		values, err := src.Values(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Info", values["logging.AllLogs"])
		assert.Equal(t, "8080", values["server.port"])
	})

	t.Run("根节点不存在返回空map", func(t *testing.T) {
		path := writeTestConfig(t, "config.yaml", "server:\n  port: 1\n")
		src, err := NewFile(path, WithRoot("logging"))
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		values, err := src.Values(context.Background())
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("每次调用读取最新内容", func(t *testing.T) {
		path := writeTestConfig(t, "config.yaml", "AllLogs: Info\n")
		src, err := NewFile(path)
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		require.NoError(t, os.WriteFile(path, []byte("AllLogs: Error\n"), 0o600))
		values, err := src.Values(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Error", values["AllLogs"])
	})
}

func TestFileSource_Watch(t *testing.T) {
	path := writeTestConfig(t, "config.yaml", "AllLogs: Info\n")
	src, err := NewFile(path, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Watch(ctx)
	require.NoError(t, err)

	// 修改文件应触发通知（防抖合并后至少一次）
	require.NoError(t, os.WriteFile(path, []byte("AllLogs: Debug\n"), 0o600))

	select {
	case ev, ok := <-events:
		require.True(t, ok, "事件通道不应提前关闭")
		assert.NoError(t, ev.Err)
	case <-time.After(3 * time.Second):
		t.Fatal("等待文件变更事件超时")
	}

	// 取消 context 后通道关闭
	cancel()
	select {
	case _, ok := <-events:
		if ok {
			// 可能还有一个缓冲事件，再读一次
			_, ok = <-events
			assert.False(t, ok)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("等待事件通道关闭超时")
	}
}

func TestFileSource_WatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("AllLogs: Info\n"), 0o600))

	src, err := NewFile(path, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	events, err := src.Watch(context.Background())
	require.NoError(t, err)

	// 同目录下其他文件的变更不应触发通知
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case ev := <-events:
		t.Fatalf("不应收到事件: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileSource_Close(t *testing.T) {
	path := writeTestConfig(t, "config.yaml", "AllLogs: Info\n")
	src, err := NewFile(path)
	require.NoError(t, err)

	events, err := src.Watch(context.Background())
	require.NoError(t, err)

	require.NoError(t, src.Close())

	// 关闭后事件通道关闭
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("等待事件通道关闭超时")
	}

	// 关闭后的调用返回 ErrSourceClosed
	_, err = src.Values(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
	_, err = src.Watch(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
	assert.ErrorIs(t, src.Close(), ErrSourceClosed)
}

func TestNewBytes(t *testing.T) {
	t.Run("无效格式", func(t *testing.T) {
		_, err := NewBytes([]byte("{}"), Format("toml"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("解析失败", func(t *testing.T) {
		_, err := NewBytes([]byte("{broken"), FormatJSON)
		assert.ErrorIs(t, err, ErrParseFailed)
	})

	t.Run("JSON数据", func(t *testing.T) {
		data := []byte(`{"logging":{"AllLogs":"Warn","order":"Trace"}}`)
		src, err := NewBytes(data, FormatJSON, WithRoot("logging"))
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		values, err := src.Values(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"AllLogs": "Warn",
			"order":   "Trace",
		}, values)
	})

	t.Run("空数据返回空map", func(t *testing.T) {
		src, err := NewBytes(nil, FormatYAML)
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		values, err := src.Values(context.Background())
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("不支持监视", func(t *testing.T) {
		src, err := NewBytes([]byte("AllLogs: Info\n"), FormatYAML)
		require.NoError(t, err)
		defer func() { _ = src.Close() }()

		_, err = src.Watch(context.Background())
		assert.ErrorIs(t, err, ErrWatchUnsupported)
		assert.True(t, IsWatchUnsupported(err))
	})

	t.Run("关闭后返回ErrSourceClosed", func(t *testing.T) {
		src, err := NewBytes([]byte("AllLogs: Info\n"), FormatYAML)
		require.NoError(t, err)
		require.NoError(t, src.Close())

		_, err = src.Values(context.Background())
		assert.ErrorIs(t, err, ErrSourceClosed)
		assert.ErrorIs(t, src.Close(), ErrSourceClosed)
	})
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "a.yaml", want: FormatYAML},
		{path: "a.yml", want: FormatYAML},
		{path: "A.YAML", want: FormatYAML},
		{path: "a.json", want: FormatJSON},
		{path: "a.toml", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := detectFormat(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
