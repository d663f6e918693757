package referencedata

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
)

const defaultDebounce = 250 * time.Millisecond

// ReloadFunc receives freshly loaded tables
type ReloadFunc func(units *ingredient.UnitTable, densities *ingredient.DensityTable) error

// Watcher reloads reference data when its files change. The directories
// holding the files are watched rather than the files themselves so that
// editors which replace a file by renaming keep triggering reloads.
type Watcher struct {
	source   Source
	reload   ReloadFunc
	logger   *zap.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	files   map[string]bool

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher for the files of src
func NewWatcher(src Source, reload ReloadFunc, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	paths := src.Paths()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no reference data files to watch")
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		source:   src,
		reload:   reload,
		logger:   logger.Named("reference-watcher"),
		debounce: debounce,
		watcher:  fsw,
		files:    make(map[string]bool, len(paths)),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Info("Watching reference data directory", zap.String("dir", dir))
	}

	return w, nil
}

// Start begins watching until ctx is cancelled or Stop is called
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop(ctx)
}

// Stop shuts the watcher down and waits for its loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

// handleEvent debounces bursts of writes into a single reload
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil || !w.files[abs] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.Reload(event.Name)
	})
}

// Reload loads the files and hands the tables to the reload function. A
// file that fails to load leaves the current tables in place.
func (w *Watcher) Reload(trigger string) {
	units, densities, err := Load(w.source)
	if err != nil {
		w.logger.Error("Reference data reload failed, keeping current tables",
			zap.String("file", trigger),
			zap.Error(err),
		)
		return
	}

	if err := w.reload(units, densities); err != nil {
		w.logger.Error("Reference data rejected", zap.String("file", trigger), zap.Error(err))
		return
	}

	w.logger.Info("Reference data reloaded",
		zap.String("file", trigger),
		zap.Int("units", units.Len()),
		zap.Int("densities", densities.Len()),
	)
}
