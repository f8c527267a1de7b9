package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file into h whenever it changes on disk, until
// ctx is canceled. The parent directory is watched rather than the file so
// editors that save via rename are picked up. A reload that fails
// validation is logged and the previous config stays in effect. Env
// overrides are re-applied on every reload.
func Watch(ctx context.Context, h *Holder, env EnvOverrides, logger *slog.Logger) error {
	path := h.Path()
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}

	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target {
				continue
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			reload(h, env, logger)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("config watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// reload loads and validates the file at h.Path() and swaps it in on success.
func reload(h *Holder, env EnvOverrides, logger *slog.Logger) {
	cfg, err := LoadOrDefault(h.Path())
	if err == nil {
		err = ApplyEnv(cfg, env)
	}

	if err == nil {
		err = Validate(cfg)
	}

	if err != nil {
		logger.Warn("config reload rejected, keeping previous config",
			slog.String("path", h.Path()),
			slog.String("error", err.Error()),
		)

		return
	}

	// The transport is fixed for the process lifetime.
	cfg.Server = h.Config().Server
	h.Update(cfg)

	logger.Info("config reloaded", slog.String("path", h.Path()))
}
