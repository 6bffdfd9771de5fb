// ===== internal/logs/sink.go =====
package logs

import (
	"container/list"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"autoauth/pkg/models"
)

const (
	// FileName is the primary log file inside the log directory
	FileName = "log.txt"
	// BackupName is the single rotation slot
	BackupName = FileName + ".1"

	RotateSize      = 1_000_000
	DefaultMaxBytes = 128 * 1024
	DefaultMaxLines = 800

	maxLogEntries   = 100
	timestampLayout = "2006-01-02 15:04:05.000"

	noLogPlaceholder = "(无日志)"
)

// Sink is the append-only diagnostic trail. All appends, including the
// rotation step, are serialized by mu.
type Sink struct {
	dir        string
	rotateSize int64
	now        func() time.Time

	mu     sync.Mutex
	recent *list.List
}

// NewSink creates a sink writing into dir
func NewSink(dir string) *Sink {
	return &Sink{
		dir:        dir,
		rotateSize: RotateSize,
		now:        time.Now,
		recent:     list.New(),
	}
}

// Path returns the primary log file path
func (s *Sink) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Append writes one timestamped line. Failures are logged and dropped.
func (s *Sink) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	s.addEntry(&models.LogEntry{Timestamp: ts, UnixTime: ts.Unix(), Message: line})

	if err := s.write(ts, line); err != nil {
		zap.S().Warnf("Failed to append to %s: %v", s.Path(), err)
	}
}

func (s *Sink) write(ts time.Time, line string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	path := s.Path()
	if fi, err := os.Stat(path); err == nil && fi.Size() > s.rotateSize {
		if err := s.rotate(path); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[%s] %s\n", ts.Format(timestampLayout), line)
	return err
}

// rotate moves the current file into the backup slot, replacing any
// previous backup
func (s *Sink) rotate(path string) error {
	backup := filepath.Join(s.dir, BackupName)
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old backup: %w", err)
	}
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("failed to rotate log: %w", err)
	}
	zap.S().Debugf("Rotated %s to %s", path, backup)
	return nil
}

// addEntry keeps the most recent entries in memory
func (s *Sink) addEntry(entry *models.LogEntry) {
	if s.recent.Len() >= maxLogEntries {
		s.recent.Remove(s.recent.Front())
	}
	s.recent.PushBack(entry)
}

// Recent returns the entries appended since startup, oldest first
func (s *Sink) Recent() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.LogEntry, 0, s.recent.Len())
	for e := s.recent.Front(); e != nil; e = e.Next() {
		entries = append(entries, *(e.Value.(*models.LogEntry)))
	}
	return entries
}

// ReadLatest returns at most maxLines trailing lines taken from the last
// maxBytes of the log file. Problems are described in the returned text.
func (s *Sink) ReadLatest(maxBytes int64, maxLines int) string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	f, err := os.Open(s.Path())
	if os.IsNotExist(err) {
		return noLogPlaceholder
	}
	if err != nil {
		return "读取日志失败: " + err.Error()
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "读取日志失败: " + err.Error()
	}

	start := fi.Size() - maxBytes
	if start < 0 {
		start = 0
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return "读取日志失败: " + err.Error()
	}

	data, err := io.ReadAll(io.LimitReader(f, fi.Size()-start))
	if err != nil {
		return "读取日志失败: " + err.Error()
	}
	text := string(data)

	// Drop the line cut by the seek
	if start > 0 {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		}
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) > maxLines {
		return strings.Join(lines[len(lines)-maxLines:], "\n") + "\n"
	}
	return text
}
