package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yourusername/skyline/internal/logging"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
// Each successful reload is delivered through the callback; parse or
// validation failures are logged and the previous config stays active.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching path and invokes onReload with each valid reload.
// The callback runs on the watcher goroutine; callers hand the new config
// to the loop thread themselves.
func Watch(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace config files
	// by rename, which drops a file-level watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		done:    make(chan struct{}),
	}

	go w.run(onReload)
	return w, nil
}

func (w *Watcher) run(onReload func(*Config)) {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce editor write bursts into one reload.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				cfg, err := LoadConfig(w.path)
				if err != nil {
					logging.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
					return
				}
				logging.Info().Str("path", w.path).Msg("config reloaded")
				onReload(cfg)
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
