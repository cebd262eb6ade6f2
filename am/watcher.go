package am

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/logger"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// ownWriteWindow is how long events are ignored after MarkOwnWrite; one
// os.WriteFile can emit several.
const ownWriteWindow = time.Second

// ReloadCallback receives each successfully reloaded config.
type ReloadCallback func(*Config) error

// ConfigWatcher watches a config file and re-runs the loader on change.
type ConfigWatcher struct {
	configPath     string
	watcher        *fsnotify.Watcher
	load           func() (*Config, error)
	debouncePeriod time.Duration

	mu            sync.Mutex
	callbacks     []ReloadCallback
	debounceTimer *time.Timer
	ownWriteUntil time.Time
}

// WatcherOption configures a ConfigWatcher.
type WatcherOption func(*ConfigWatcher)

// WithLoader replaces the default loader, which resets and re-runs Load.
func WithLoader(load func() (*Config, error)) WatcherOption {
	return func(cw *ConfigWatcher) { cw.load = load }
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(cw *ConfigWatcher) { cw.debouncePeriod = d }
}

// NewConfigWatcher watches the directory of configPath, so editors that
// replace the file on save are still followed.
func NewConfigWatcher(configPath string, opts ...WatcherOption) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(configPath)); err != nil {
		w.Close()
		return nil, errors.WithDetailf(errors.Wrap(err, "failed to watch config file"), "path: %s", configPath)
	}

	cw := &ConfigWatcher{
		configPath:     filepath.Clean(configPath),
		watcher:        w,
		debouncePeriod: DefaultDebounce,
		load: func() (*Config, error) {
			Reset()
			return Load()
		},
	}
	for _, opt := range opts {
		opt(cw)
	}
	return cw, nil
}

// OnReload registers a callback run after each successful reload.
func (cw *ConfigWatcher) OnReload(cb ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, cb)
}

// MarkOwnWrite suppresses the reload triggered by classdb's own next write.
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.ownWriteUntil = time.Now().Add(ownWriteWindow)
}

func (cw *ConfigWatcher) isOwnWrite() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return time.Now().Before(cw.ownWriteUntil)
}

// Start begins watching in the background.
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.configPath || isBackupFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if cw.isOwnWrite() {
				logger.Debugw("Config watcher ignoring own write", logger.FieldFile, event.Name)
				continue
			}
			logger.Infow("Config watcher detected change", logger.FieldFile, event.Name, "op", event.Op.String())
			cw.scheduleReload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", logger.FieldError, err)
		}
	}
}

func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			logger.Warnw("Config reload failed, keeping previous config",
				logger.FieldFile, cw.configPath, logger.FieldError, err)
		}
	})
}

func (cw *ConfigWatcher) reload() error {
	cfg, err := cw.load()
	if err != nil {
		return err
	}
	logger.Infow("Config reloaded", logger.FieldFile, cw.configPath)

	cw.mu.Lock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			logger.Warnw("Config reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.mu.Unlock()
	return cw.watcher.Close()
}

func isBackupFile(path string) bool {
	return strings.HasSuffix(path, BackupSuffix)
}
