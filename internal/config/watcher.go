package config

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a Watcher
type WatcherConfig struct {
	// DebounceDuration is the quiet period after the last event before a
	// reload. Editors emit several events per save.
	DebounceDuration time.Duration
	// OnChange receives every successfully loaded configuration
	OnChange func(newConfig *Config) error
	// OnError receives load, apply and watch errors
	OnError func(error)
	// EnvVars applies DEVSTACK_* overrides on reload
	EnvVars bool
}

// DefaultWatcherConfig returns default watcher configuration
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		DebounceDuration: 500 * time.Millisecond,
		EnvVars:          true,
	}
}

// Watcher reloads the configuration file when it changes. It watches the
// parent directory, so saves that replace the file (write to a temporary
// file, then rename) are seen as well. Reloads whose file content did not
// change are skipped.
type Watcher struct {
	configPath string
	config     *WatcherConfig
	watcher    *fsnotify.Watcher
	logger     *slog.Logger

	// applied is the digest of the last content handed to OnChange
	applied [sha256.Size]byte

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for configPath. The file must exist.
func NewWatcher(configPath string, config *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if config == nil {
		config = DefaultWatcherConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", configPath, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	return &Watcher{
		configPath: absPath,
		config:     config,
		watcher:    fw,
		logger:     logger.With("component", "config-watcher"),
		applied:    sha256.Sum256(data),
		stopCh:     make(chan struct{}),
	}, nil
}

// Start begins watching in the background
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("watching configuration", "file", w.configPath)
}

// Stop stops watching. A pending reload is dropped.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	return w.watcher.Close()
}

// Path returns the watched configuration path
func (w *Watcher) Path() string {
	return w.configPath
}

// loop owns the debounce timer, so reloads never run concurrently.
func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				timer.Reset(w.config.DebounceDuration)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.fail(fmt.Errorf("watcher error: %w", err))

		case <-timer.C:
			if err := w.reload(); err != nil {
				w.fail(err)
			}

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.configPath {
		return false
	}
	if event.Has(fsnotify.Remove) {
		// a replacing save creates the file again right after
		w.logger.Debug("config file removed", "file", event.Name)
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	sum := sha256.Sum256(data)
	if sum == w.applied {
		w.logger.Debug("config content unchanged", "file", w.configPath)
		return nil
	}

	cfg, err := NewLoader(w.configPath).WithEnvVars(w.config.EnvVars).Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if w.config.OnChange != nil {
		if err := w.config.OnChange(cfg); err != nil {
			return fmt.Errorf("applying config: %w", err)
		}
	}

	w.applied = sum
	w.logger.Info("configuration reloaded", "routes", len(cfg.Proxy.Routes))
	return nil
}

func (w *Watcher) fail(err error) {
	w.logger.Error("config reload failed", "error", err)
	if w.config.OnError != nil {
		w.config.OnError(err)
	}
}
