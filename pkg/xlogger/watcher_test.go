package xlogger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/logkit/pkg/xcore"
	"github.com/omeyang/logkit/pkg/xsource"
)

func TestConfigWatcher_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   xcore.Level
		wantOK bool
	}{
		{
			name:   "仅AllLogs",
			values: map[string]string{"AllLogs": "Info"},
			want:   xcore.LevelInfo,
			wantOK: true,
		},
		{
			name:   "覆盖键优先",
			values: map[string]string{"AllLogs": "Info", "app": "Error"},
			want:   xcore.LevelError,
			wantOK: true,
		},
		{
			name:   "覆盖键非法时回退AllLogs",
			values: map[string]string{"AllLogs": "Warn", "app": "ERROR"},
			want:   xcore.LevelWarn,
			wantOK: true,
		},
		{
			name:   "None是合法级别",
			values: map[string]string{"app": "None"},
			want:   xcore.LevelNone,
			wantOK: true,
		},
		{
			name:   "两者均非法",
			values: map[string]string{"AllLogs": "info", "app": "debug"},
			wantOK: false,
		},
		{
			name:   "两者均缺失",
			values: map[string]string{"other": "Info"},
			wantOK: false,
		},
		{
			name:   "空快照",
			values: map[string]string{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &configWatcher{name: "app", onError: func(error) {}}
			got, ok := w.resolve(tt.values)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestConfigWatcher_PollWithoutWatchSupport(t *testing.T) {
	// 字节来源不支持监视，监视器必须退化为纯轮询
	src, err := xsource.NewBytes([]byte(`{"AllLogs":"Debug"}`), xsource.FormatJSON)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	level := xcore.NewLevelVar(xcore.LevelNone)
	w := newConfigWatcher("app", src, level, 20*time.Millisecond, func(error) {})
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return level.Level() == xcore.LevelDebug
	}, 3*time.Second, 10*time.Millisecond)
}

// flakySource Values 行为可切换的测试来源。
type flakySource struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func (s *flakySource) Values(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *flakySource) Watch(context.Context) (<-chan xsource.Event, error) {
	return nil, xsource.ErrWatchUnsupported
}

func (s *flakySource) Close() error { return nil }

func (s *flakySource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func TestConfigWatcher_RetainOnReadFailure(t *testing.T) {
	src := &flakySource{values: map[string]string{"AllLogs": "Info"}}
	level := xcore.NewLevelVar(xcore.LevelNone)

	w := newConfigWatcher("app", src, level, 20*time.Millisecond, func(error) {})
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return level.Level() == xcore.LevelInfo
	}, 3*time.Second, 10*time.Millisecond)

	// 读取开始失败后级别保持不变
	src.setErr(errors.New("source unavailable"))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, xcore.LevelInfo, level.Level())
}

func TestConfigWatcher_EventTriggersReconcile(t *testing.T) {
	src := xsource.NewMemory(map[string]string{"AllLogs": "Info"})
	defer func() { _ = src.Close() }()

	level := xcore.NewLevelVar(xcore.LevelNone)
	// 轮询间隔放大，确保级别变化由事件驱动而非轮询
	w := newConfigWatcher("app", src, level, time.Minute, func(error) {})
	w.Start()
	defer w.Stop()

	src.Set("AllLogs", "Error")
	require.Eventually(t, func() bool {
		return level.Level() == xcore.LevelError
	}, 3*time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_Stop(t *testing.T) {
	t.Run("未启动时Stop不阻塞", func(t *testing.T) {
		src := xsource.NewMemory(nil)
		defer func() { _ = src.Close() }()

		w := newConfigWatcher("app", src, xcore.NewLevelVar(xcore.LevelNone), time.Second, func(error) {})
		assert.NotPanics(t, w.Stop)
	})

	t.Run("Stop后不再调和", func(t *testing.T) {
		src := xsource.NewMemory(nil)
		defer func() { _ = src.Close() }()

		level := xcore.NewLevelVar(xcore.LevelNone)
		w := newConfigWatcher("app", src, level, 20*time.Millisecond, func(error) {})
		w.Start()
		w.Stop()

		src.Set("AllLogs", "Trace")
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, xcore.LevelNone, level.Level())

		// 幂等
		assert.NotPanics(t, w.Stop)
	})
}
