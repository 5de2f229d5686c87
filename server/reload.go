package server

import (
	"context"

	"github.com/milk9111/actionengine/catalog"
	"go.uber.org/zap"
)

// WatchCatalog reloads dir whenever watcher reports a change and swaps the
// result into w on the next tick. Content that fails to load is logged and
// the previous catalog stays in use. It returns when ctx ends or the
// watcher closes.
func WatchCatalog(ctx context.Context, w *World, watcher *catalog.Watcher, dir string) {
	log := w.log.Named("catalog")
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-watcher.Events:
			if !ok {
				return
			}
			c, err := catalog.LoadDir(dir)
			if err != nil {
				log.Warn("catalog reload failed", zap.String("file", name), zap.Error(err))
				continue
			}
			log.Info("catalog changed", zap.String("file", name), zap.Int("descriptors", c.Len()))
			w.Submit(func(w *World) { w.ReloadCatalog(c) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("catalog watcher error", zap.Error(err))
		}
	}
}
