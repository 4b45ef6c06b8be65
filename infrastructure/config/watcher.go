package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainconfig "questionnaire-builder/domain/config"
)

// ReloadRecorder counts reload attempts.
type ReloadRecorder interface {
	ObserveConfigReload(err error)
}

// DomainConfigWatcher serves the domain configuration from a YAML file and
// reloads it when the file changes. A file that fails to parse or validate
// is rejected and the current configuration stays in force.
type DomainConfigWatcher struct {
	path        string
	environment string
	watcher     *fsnotify.Watcher
	current     atomic.Pointer[domainconfig.DomainConfig]
	mu          sync.Mutex
	onChange    []func(*domainconfig.DomainConfig)
	recorder    ReloadRecorder
	logger      *zap.Logger
	stopCh      chan struct{}
	stopOnce    sync.Once
	debounce    time.Duration
}

// NewDomainConfigWatcher loads the file and starts watching its directory,
// which also catches editors that save by renaming.
func NewDomainConfigWatcher(path, environment string, recorder ReloadRecorder, logger *zap.Logger) (*DomainConfigWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := LoadDomainConfig(path, environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial domain config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &DomainConfigWatcher{
		path:        path,
		environment: environment,
		watcher:     watcher,
		recorder:    recorder,
		logger:      logger,
		stopCh:      make(chan struct{}),
		debounce:    100 * time.Millisecond,
	}
	w.current.Store(cfg)
	return w, nil
}

// Current returns the configuration in force
func (w *DomainConfigWatcher) Current() *domainconfig.DomainConfig {
	return w.current.Load()
}

// OnChange registers a callback run after every applied reload
func (w *DomainConfigWatcher) OnChange(handler func(*domainconfig.DomainConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Start begins watching for changes
func (w *DomainConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Domain config watcher started", zap.String("path", w.path))
}

// Stop stops watching; it is safe to call more than once
func (w *DomainConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Domain config watcher stopped")
	})
}

// Reload re-reads the file now
func (w *DomainConfigWatcher) Reload() error {
	cfg, err := LoadDomainConfig(w.path, w.environment)
	if w.recorder != nil {
		w.recorder.ObserveConfigReload(err)
	}
	if err != nil {
		w.logger.Error("Invalid domain config, keeping current", zap.String("path", w.path), zap.Error(err))
		return err
	}

	old := w.current.Swap(cfg)
	w.logChanges(old, cfg)

	w.mu.Lock()
	handlers := append([]func(*domainconfig.DomainConfig){}, w.onChange...)
	w.mu.Unlock()
	for _, handler := range handlers {
		handler(cfg)
	}

	w.logger.Info("Domain config reloaded", zap.String("path", w.path))
	return nil
}

func (w *DomainConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				_ = w.Reload()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *DomainConfigWatcher) logChanges(old, updated *domainconfig.DomainConfig) {
	var changes []string
	if old.MaxQuestions != updated.MaxQuestions {
		changes = append(changes, fmt.Sprintf("MaxQuestions: %d -> %d", old.MaxQuestions, updated.MaxQuestions))
	}
	if old.MaxTitleLength != updated.MaxTitleLength {
		changes = append(changes, fmt.Sprintf("MaxTitleLength: %d -> %d", old.MaxTitleLength, updated.MaxTitleLength))
	}
	if old.MaxCriteriaPerSlot != updated.MaxCriteriaPerSlot {
		changes = append(changes, fmt.Sprintf("MaxCriteriaPerSlot: %d -> %d", old.MaxCriteriaPerSlot, updated.MaxCriteriaPerSlot))
	}
	if old.Export != updated.Export {
		changes = append(changes, "Export defaults")
	}
	if old.Layout != updated.Layout {
		changes = append(changes, "Layout parameters")
	}
	if len(changes) > 0 {
		w.logger.Info("Domain config changes detected", zap.Strings("changes", changes))
	}
}
