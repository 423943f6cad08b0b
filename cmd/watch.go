package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/bindplan/config"
	"github.com/rubiojr/bindplan/plan"
)

// watcher re-runs analyze when the declaration batch or the config file
// changes. Output locations stay as resolved at startup; a config change
// only affects analysis options.
type watcher struct {
	session  *session
	decls    string
	config   string
	debounce time.Duration

	// ran is called after every run; tests use it to synchronize.
	ran func(*plan.Plan, error)
}

func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Directories are watched so editors that save by rename still
	// trigger a run.
	targets := map[string]bool{filepath.Clean(w.decls): true}
	if w.config != "" {
		targets[filepath.Clean(w.config)] = true
	}
	dirs := map[string]bool{}
	for path := range targets {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return err
		}
	}

	w.session.logger.Info("watching", "file", w.decls, "config", w.config, "debounce", w.debounce)
	w.analyze()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.session.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			if w.config != "" {
				w.reloadConfig()
			}
			w.analyze()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.session.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *watcher) analyze() {
	p, err := w.session.analyze(w.decls)
	if err != nil {
		w.session.logger.Error("analysis failed", "error", err)
	}
	if w.ran != nil {
		w.ran(p, err)
	}
}

func (w *watcher) reloadConfig() {
	cfg, err := config.Load(w.config)
	if err != nil {
		w.session.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}
	w.session.cfg = cfg
}
