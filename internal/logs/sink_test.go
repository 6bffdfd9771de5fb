package logs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(s *Sink) {
	ts := time.Date(2024, 9, 1, 8, 30, 0, 123_000_000, time.Local)
	s.now = func() time.Time { return ts }
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestAppendFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autoauth")
	s := NewSink(dir)
	fixedClock(s)

	s.Append("服务已创建并开始调度")
	s.Append("网络=已联网 | GET结果=HTTP 200")

	assert.Equal(t,
		"[2024-09-01 08:30:00.123] 服务已创建并开始调度\n[2024-09-01 08:30:00.123] 网络=已联网 | GET结果=HTTP 200\n",
		readFile(t, s.Path()))

	recent := s.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "服务已创建并开始调度", recent[0].Message)
}

func TestRecentIsBounded(t *testing.T) {
	s := NewSink(t.TempDir())
	for i := 0; i < maxLogEntries+20; i++ {
		s.Append(fmt.Sprintf("line %d", i))
	}
	recent := s.Recent()
	require.Len(t, recent, maxLogEntries)
	assert.Equal(t, "line 20", recent[0].Message)
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	s := NewSink(dir)
	backup := filepath.Join(dir, BackupName)
	big := strings.Repeat("x", 600_000)

	s.Append("big1 " + big)
	s.Append("big2 " + big)
	_, err := os.Stat(backup)
	require.True(t, os.IsNotExist(err), "no rotation before the threshold is crossed")

	s.Append("small3")
	first := readFile(t, backup)
	assert.Contains(t, first, "big1 ")
	assert.Contains(t, first, "big2 ")
	assert.NotContains(t, readFile(t, s.Path()), "big")
	assert.Contains(t, readFile(t, s.Path()), "small3")

	s.Append("big4 " + big)
	s.Append("big5 " + big)
	s.Append("small6")

	second := readFile(t, backup)
	assert.NotContains(t, second, "big1 ", "second rotation replaces the first backup")
	assert.Contains(t, second, "small3")
	assert.Contains(t, second, "big5 ")
	assert.Contains(t, readFile(t, s.Path()), "small6")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestConcurrentAppendsWithRotation(t *testing.T) {
	s := NewSink(t.TempDir())
	s.rotateSize = 2048

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Append(fmt.Sprintf("worker-%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	line := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] worker-\d+-\d+$`)
	for _, path := range []string{s.Path(), filepath.Join(s.dir, BackupName)} {
		content := readFile(t, path)
		require.True(t, strings.HasSuffix(content, "\n"))
		for _, l := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
			assert.Regexp(t, line, l)
		}
	}
}

func TestReadLatest(t *testing.T) {
	t.Run("placeholder without a file", func(t *testing.T) {
		s := NewSink(t.TempDir())
		assert.Equal(t, "(无日志)", s.ReadLatest(0, 0))
	})

	t.Run("read failure is described", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, FileName), 0755))
		got := NewSink(dir).ReadLatest(0, 0)
		assert.True(t, strings.HasPrefix(got, "读取日志失败: "), got)
	})

	t.Run("line limit", func(t *testing.T) {
		s := NewSink(t.TempDir())
		fixedClock(s)
		for i := 0; i < 10; i++ {
			s.Append(fmt.Sprintf("line %d", i))
		}
		got := s.ReadLatest(DefaultMaxBytes, 3)
		lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasSuffix(lines[0], "line 7"))
		assert.True(t, strings.HasSuffix(lines[2], "line 9"))
	})

	t.Run("byte limit", func(t *testing.T) {
		s := NewSink(t.TempDir())
		fixedClock(s)
		for i := 0; i < 100; i++ {
			s.Append(fmt.Sprintf("line %03d", i))
		}
		// each record is 35 bytes
		got := s.ReadLatest(100, DefaultMaxLines)
		assert.LessOrEqual(t, len(got), 100)
		assert.NotContains(t, got, "line 097")
		assert.Contains(t, got, "line 098")
		assert.Contains(t, got, "line 099")
		assert.True(t, strings.HasPrefix(got, "["), "partial first line is dropped")
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFollow(t *testing.T) {
	s := NewSink(t.TempDir())
	s.Append("before follow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- s.Follow(ctx, out) }()

	require.Eventually(t, func() bool {
		s.Append("ping")
		return strings.Contains(out.String(), "ping")
	}, 3*time.Second, 20*time.Millisecond)
	assert.NotContains(t, out.String(), "before follow")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}
