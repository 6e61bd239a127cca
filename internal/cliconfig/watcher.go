package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// Watcher monitors the config file and reloads deployment constants on
// change. Only the tunables safe to swap mid-run are reapplied: the volume
// ceiling, the class lists, the operation budget, and the probe budget.
// Connection settings stay fixed for the life of the process.
type Watcher struct {
	Path   string
	Logger log.Logger

	// OnReload receives the updated config after a successful reload.
	OnReload func(Config)

	mu       sync.Mutex
	current  Config
	debounce *time.Timer
}

// NewWatcher builds a Watcher over a validated base config.
func NewWatcher(path string, base Config, logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Watcher{Path: path, Logger: logger, current: base}
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches the config file's directory until the context is cancelled.
// Editors replace files rather than writing in place, so the watch is on
// the directory and events are filtered by name.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.Path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(w.Path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("config watch error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

// reload reapplies the file's tunables onto the current config. A file that
// fails to parse or validate leaves the running config untouched.
func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.Path)
	if err != nil {
		w.Logger.Warn("config reload failed", log.String("path", w.Path), log.Err(err))
		return
	}

	w.mu.Lock()
	next := w.current
	w.mu.Unlock()

	s := newConfigSetter(nil)
	s.setInt64("ceiling", fc.Ceiling, &next.Ceiling)
	s.setInt("verify-budget", fc.VerifyBudget, &next.VerifyBudget)
	s.setStrings("clearable", fc.Clearable, &next.Clearable)
	s.setStrings("preserved", fc.Preserved, &next.Preserved)
	if err := s.setDuration("budget", fc.Budget, &next.Budget); err != nil {
		w.Logger.Warn("config reload failed", log.String("path", w.Path), log.Err(err))
		return
	}

	if err := next.Validate(); err != nil {
		w.Logger.Warn("config reload rejected", log.String("path", w.Path), log.Err(err))
		return
	}

	w.mu.Lock()
	w.current = next
	cb := w.OnReload
	w.mu.Unlock()

	w.Logger.Info("config reloaded",
		log.String("path", w.Path),
		log.Int64("ceiling", next.Ceiling),
		log.Int("clearable", len(next.Clearable)),
	)
	if cb != nil {
		cb(next)
	}
}
