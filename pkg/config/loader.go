package config

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Loader handles loading and watching a configuration file.
type Loader struct {
	path     string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	current  *Config
	mu       sync.RWMutex
	onChange func(*Config)
	close    chan struct{}
	once     sync.Once
}

// NewLoader creates a Loader for path. A nil logger discards output.
func NewLoader(path string, logger *slog.Logger) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Loader{
		path:   absPath,
		logger: logger,
		close:  make(chan struct{}),
	}, nil
}

// Path returns the absolute path being loaded.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the configuration file. The previous configuration
// is retained when loading fails.
func (l *Loader) Load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()

	return cfg, nil
}

// Watch starts monitoring the config file and calls onChange with every
// configuration that loads successfully after a write.
func (l *Loader) Watch(onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	l.watcher = watcher
	l.onChange = onChange

	// Editors often save by rename, so watch the directory rather than the file.
	dir := filepath.Dir(l.path)
	if err := l.watcher.Add(dir); err != nil {
		l.watcher.Close()
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	for {
		select {
		case <-l.close:
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			cfg, err := l.Load()
			if err != nil {
				l.logger.Warn("Config reload failed, keeping previous configuration", "path", l.path, "error", err)
				continue
			}
			l.logger.Info("Config reloaded", "path", l.path)
			if l.onChange != nil {
				l.onChange(cfg)
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("Config watcher error", "error", err)
		}
	}
}

// Current returns the last configuration that loaded successfully.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Close stops the watcher.
func (l *Loader) Close() error {
	var err error
	l.once.Do(func() {
		close(l.close)
		if l.watcher != nil {
			err = l.watcher.Close()
		}
	})
	return err
}
