package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the configuration file on change and hands validated
// snapshots to the registered callback. Reload failures keep the previous
// configuration; the gateway never runs with a half-applied file.
type Watcher struct {
	path     string
	log      zerolog.Logger
	onChange func(*Config)
	fs       *fsnotify.Watcher
	done     chan struct{}
}

// Watch starts watching path. The callback runs on the watcher goroutine
// and must not block.
func Watch(path string, log zerolog.Logger, onChange func(*Config)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory: editors and config maps replace the file rather
	// than writing in place
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close() //nolint:errcheck
		return nil, err
	}

	w := &Watcher{
		path:     path,
		log:      log,
		onChange: onChange,
		fs:       fs,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var debounce *time.Timer
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, w.reload)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("config reload failed, keeping previous")
		return
	}
	w.log.Info().
		Int("max_complexity", cfg.Limits.MaxComplexity).
		Int("max_depth", cfg.Limits.MaxDepth).
		Int("rate_cap", cfg.RateLimit.Cap).
		Msg("configuration reloaded")
	w.onChange(cfg)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}
