package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/crazybot-rc/crazybot/logging"
	"github.com/crazybot-rc/crazybot/utils"
)

// reloadDelay collapses the burst of events an editor produces for one save.
const reloadDelay = 100 * time.Millisecond

// A Watcher rereads a config file whenever it changes on disk.
type Watcher struct {
	filePath  string
	watcher   *fsnotify.Watcher
	onChange  func(*Config)
	logger    logging.Logger
	workers   *utils.StoppableWorkers
	debounced func(func())
	reload    chan struct{}
}

// NewWatcher starts watching filePath. onChange receives every config that reads and validates;
// changes producing invalid configs are logged and skipped.
func NewWatcher(ctx context.Context, filePath string, onChange func(*Config), logger logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating config watcher")
	}
	// watch the directory so that editors replacing the file are noticed
	if err := fsWatcher.Add(filepath.Dir(filePath)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "watching %q", filePath), fsWatcher.Close())
	}
	w := &Watcher{
		filePath:  filepath.Clean(filePath),
		watcher:   fsWatcher,
		onChange:  onChange,
		logger:    logger,
		debounced: debounce.New(reloadDelay),
		reload:    make(chan struct{}, 1),
	}
	w.workers = utils.NewStoppableWorkers(ctx, w.run)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "error", err)
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.debounced(w.requestReload)
		case <-w.reload:
			cfg, err := Read(ctx, w.filePath, w.logger)
			if err != nil {
				w.logger.Warnw("ignoring invalid config change", "path", w.filePath, "error", err)
				continue
			}
			w.logger.Infow("config reloaded", "path", w.filePath)
			w.onChange(cfg)
		}
	}
}

func (w *Watcher) requestReload() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.workers.Cancel()
	err := w.watcher.Close()
	w.workers.Stop()
	return err
}
