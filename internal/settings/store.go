// ===== internal/settings/store.go =====
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"autoauth/internal/config"
	"autoauth/pkg/models"
)

// Store is the settings provider. It holds the latest configuration and
// reloads it when the config file changes on disk.
type Store struct {
	path string

	mu  sync.RWMutex
	cfg *config.Config

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewStore loads the configuration at path
func NewStore(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	cfg, err := config.New(abs)
	if err != nil {
		return nil, err
	}

	return &Store{
		path:   abs,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Path returns the watched config file
func (s *Store) Path() string {
	return s.path
}

// Current returns the latest configuration snapshot. Callers must not
// modify it.
func (s *Store) Current() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Store) Credentials() models.Credentials  { return s.Current().Credentials() }
func (s *Store) Override() models.AddressOverride { return s.Current().Override() }
func (s *Store) PreferredInterface() string       { return s.Current().Interface }
func (s *Store) AutoStart() bool                  { return s.Current().AutoStart }

// Reload re-reads the config file. A file that is missing or fails to
// parse leaves the previous configuration in place.
func (s *Store) Reload() error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zap.S().Debugf("Settings file %s is gone, keeping previous settings", s.path)
			return nil
		}
		return fmt.Errorf("failed to reload %s: %w", s.path, err)
	}
	cfg.LoadFromEnv()

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	zap.S().Infof("Reloaded settings from %s", s.path)
	return nil
}

// Start begins watching the config file
func (s *Store) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := ensureDirExists(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}

	// Watch the directory so that editors which save by rename are seen
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	// Stop only waits on watchFiles once the watcher is set
	s.watcher = watcher
	go s.watchFiles()
	return nil
}

// Helper to ensure the config directory exists for watching
func ensureDirExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		zap.S().Infof("Created directory: %s", dir)
	}
	return nil
}

func (s *Store) watchFiles() {
	defer close(s.doneCh)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				zap.S().Debugf("Config file event: %s", event)
				if err := s.Reload(); err != nil {
					zap.S().Warnf("Error reloading settings: %v", err)
				}
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			zap.S().Warnf("File watcher error: %v", err)

		case <-s.stopCh:
			return
		}
	}
}

// Stop stops watching
func (s *Store) Stop() {
	if s.watcher == nil {
		return
	}
	close(s.stopCh)
	s.watcher.Close()
	<-s.doneCh
	s.watcher = nil
}
