package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mj1618/desktop-intent/internal/logging"
)

// DebounceDelay is how long Watch waits for writes to settle before
// reloading.
var DebounceDelay = 300 * time.Millisecond

// Watch reloads the YAML file at path whenever it changes and passes the new
// configuration to fn. Environment overrides are reapplied on each reload.
// The directory is watched rather than the file so editors that replace
// the file atomically are seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log := logging.For("config")
	log.Info().Str("path", abs).Msg("watching config file")

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(DebounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			cfg, err := LoadFile(abs)
			if err != nil {
				log.Warn().Err(err).Msg("config reload failed; keeping previous settings")
				continue
			}
			log.Info().Str("log_level", cfg.LogLevel).Msg("config reloaded")
			fn(cfg)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("config watcher error")
		}
	}
}
