package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must sit unchanged before it is picked
// up. Editors and copy tools fire several write events while a document
// lands; processing a half-written file wastes a classification call.
const settleDelay = time.Second

// Watch starts an fsnotify watcher on the document directory and runs
// every new or modified document through the pipeline until ctx is
// cancelled. Files already present at startup are processed first.
func (rt *Runtime) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(rt.Config.Paths.Docs); err != nil {
		return err
	}

	rt.Logger.Info("watcher started", "dir", rt.Config.Paths.Docs)

	if _, err := rt.Run(ctx); err != nil {
		return err
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rt.Logger.Info("watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				delete(pending, ev.Name)
				continue
			}
			if !rt.supports(filepath.Ext(ev.Name)) {
				continue
			}
			pending[ev.Name] = time.Now()

		case <-ticker.C:
			for path, touched := range pending {
				if time.Since(touched) < settleDelay {
					continue
				}
				delete(pending, path)

				info, statErr := os.Stat(path)
				if statErr != nil || info.IsDir() {
					continue
				}
				rt.ProcessDocument(ctx, path)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			rt.Logger.Error("watcher error", "error", watchErr)
		}
	}
}
