// Package refresher keeps the cache and the published snapshot in sync with
// the filesystem. All refreshes funnel through one orchestrator so
// concurrent triggers (startup, interval, watcher, API) queue instead of
// overlapping.
package refresher

import (
	"context"
	"sync"
	"time"

	"github.com/ignitero/ignitero/internal/cachestore"
	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/config"
	"github.com/ignitero/ignitero/internal/errdefs"
	"github.com/ignitero/ignitero/internal/log"
	"github.com/ignitero/ignitero/internal/metastore"
	"github.com/ignitero/ignitero/internal/scanner"
)

// autoUpdateTick is how often the auto-update loop re-checks cache age. The
// configured interval decides whether a refresh actually runs.
const autoUpdateTick = time.Hour

type Refresher struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	store   *cachestore.Store
	meta    *metastore.Store
	library *catalog.Library

	mu sync.Mutex
}

func New(cfg *config.Config, store *cachestore.Store, meta *metastore.Store, library *catalog.Library) *Refresher {
	return &Refresher{
		cfg:     cfg,
		scanner: scanner.New(cfg),
		store:   store,
		meta:    meta,
		library: library,
	}
}

// Refresh rescans everything, replaces the cache contents, and publishes a
// new snapshot. A failed refresh leaves the previous cache and snapshot
// untouched. Concurrent calls serialize.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()

	bundles := make(map[string]metastore.BundleMeta)
	reuse := r.reuseFunc(bundles)

	apps, err := r.scanner.ScanApps(ctx, reuse)
	if err != nil {
		return errdefs.NewCustomError(errdefs.ErrTypeScanFailed, "app scan failed", err)
	}
	dirs := r.scanner.BuildDirectories()
	commands := r.scanner.CommandItems()

	r.recordBundleDiff(bundles)

	if err := r.store.SaveApps(ctx, apps); err != nil {
		return err
	}
	if err := r.store.SaveDirectories(ctx, dirs); err != nil {
		return err
	}
	if err := r.store.SetLastUpdateTime(ctx, time.Now().Unix()); err != nil {
		return err
	}

	r.library.Publish(&catalog.Snapshot{
		Apps:        apps,
		Directories: dirs,
		Commands:    commands,
	})

	log.Infof("refresh complete: %d apps, %d directories, %d commands in %s",
		len(apps), len(dirs), len(commands), time.Since(start).Round(time.Millisecond))
	return nil
}

// reuseFunc returns the scan hook that skips re-reading bundles whose
// recorded modification time and size are unchanged, carrying forward the
// previously published item (and its icon path). It also collects the
// current metadata of every scanned bundle into bundles for the diff.
func (r *Refresher) reuseFunc(bundles map[string]metastore.BundleMeta) scanner.ReuseFunc {
	prev := make(map[string]catalog.AppItem)
	for _, app := range r.library.Snapshot().Apps {
		prev[app.Path] = app
	}

	return func(path string, modTime time.Time, size int64) (catalog.AppItem, bool) {
		bundles[path] = metastore.BundleMeta{ModTime: modTime, Size: size}
		if r.meta == nil {
			return catalog.AppItem{}, false
		}

		old, found, err := r.meta.Get(path)
		if err != nil || !found || !old.ModTime.Equal(modTime) || old.Size != size {
			return catalog.AppItem{}, false
		}
		item, ok := prev[path]
		return item, ok
	}
}

// recordBundleDiff replaces the metastore contents with the metadata the
// scan just collected and logs what changed since the previous run.
// Metastore failures are not fatal to the refresh.
func (r *Refresher) recordBundleDiff(bundles map[string]metastore.BundleMeta) {
	if r.meta == nil {
		return
	}

	added, removed, err := r.meta.Replace(bundles)
	if err != nil {
		log.Warnf("failed to update bundle metadata: %v", err)
		return
	}
	for _, path := range added {
		log.Debugf("new app bundle: %s", path)
	}
	for _, path := range removed {
		log.Debugf("removed app bundle: %s", path)
	}
}

// Prime brings the snapshot up at startup: refresh when the cache is empty
// or configured to update on startup, otherwise serve the cached contents.
func (r *Refresher) Prime(ctx context.Context) error {
	empty, err := r.store.IsEmpty(ctx)
	if err != nil {
		return err
	}

	if empty || r.cfg.CacheUpdate.UpdateOnStartup {
		return r.Refresh(ctx)
	}
	return r.LoadFromCache(ctx)
}

// LoadFromCache publishes a snapshot from the cache without scanning.
// Commands always come from the config, they are never cached.
func (r *Refresher) LoadFromCache(ctx context.Context) error {
	apps, err := r.store.LoadApps(ctx)
	if err != nil {
		return err
	}
	dirs, err := r.store.LoadDirectories(ctx)
	if err != nil {
		return err
	}

	r.library.Publish(&catalog.Snapshot{
		Apps:        apps,
		Directories: dirs,
		Commands:    r.scanner.CommandItems(),
	})

	log.Infof("loaded cache: %d apps, %d directories", len(apps), len(dirs))
	return nil
}

// RunAutoUpdate periodically refreshes when the cache grows older than the
// configured interval. Blocks until ctx is canceled.
func (r *Refresher) RunAutoUpdate(ctx context.Context) {
	if !r.cfg.CacheUpdate.AutoUpdateEnabled {
		return
	}

	interval := r.cfg.CacheUpdate.AutoUpdateIntervalHours
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(autoUpdateTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := r.store.NeedsUpdate(ctx, interval)
			if err != nil {
				log.Warnf("failed to check cache age: %v", err)
				continue
			}
			if !stale {
				continue
			}
			if err := r.Refresh(ctx); err != nil {
				log.Errorf("auto-update refresh failed: %v", err)
			}
		}
	}
}
