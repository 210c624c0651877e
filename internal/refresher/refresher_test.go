package refresher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignitero/ignitero/internal/cachestore"
	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/config"
	"github.com/ignitero/ignitero/internal/metastore"
)

func writeTestBundle(t *testing.T, root, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, name+".app", "Contents"), 0o755))
}

func newTestRefresher(t *testing.T, cfg *config.Config) (*Refresher, *cachestore.Store, *catalog.Library) {
	t.Helper()
	ctx := context.Background()

	store, err := cachestore.OpenInMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	meta, err := metastore.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	library := catalog.NewLibrary()
	return New(cfg, store, meta, library), store, library
}

func TestRefreshPopulatesCacheAndSnapshot(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()
	writeTestBundle(t, appRoot, "Safari")
	writeTestBundle(t, appRoot, "Notes")

	cfg := &config.Config{
		AppDirs:  []config.AppDir{{Path: appRoot, MaxDepth: 2}},
		Commands: []config.Command{{Alias: "deploy", Command: "make deploy"}},
	}
	r, store, library := newTestRefresher(t, cfg)

	require.NoError(t, r.Refresh(ctx))

	snap := library.Snapshot()
	require.Len(t, snap.Apps, 2)
	assert.Equal(t, "Notes", snap.Apps[0].Name)
	assert.Equal(t, "Safari", snap.Apps[1].Name)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, "deploy", snap.Commands[0].Alias)

	apps, err := store.LoadApps(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	_, ok, err := store.LastUpdateTime(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshReplacesStaleEntries(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()
	writeTestBundle(t, appRoot, "Safari")

	cfg := &config.Config{AppDirs: []config.AppDir{{Path: appRoot, MaxDepth: 2}}}
	r, store, library := newTestRefresher(t, cfg)

	require.NoError(t, r.Refresh(ctx))

	require.NoError(t, os.RemoveAll(filepath.Join(appRoot, "Safari.app")))
	writeTestBundle(t, appRoot, "Mail")

	require.NoError(t, r.Refresh(ctx))

	snap := library.Snapshot()
	require.Len(t, snap.Apps, 1)
	assert.Equal(t, "Mail", snap.Apps[0].Name)

	apps, err := store.LoadApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Mail", apps[0].Name)
}

func TestPrimeRefreshesEmptyCache(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()
	writeTestBundle(t, appRoot, "Safari")

	cfg := &config.Config{
		AppDirs:     []config.AppDir{{Path: appRoot, MaxDepth: 2}},
		CacheUpdate: config.CacheUpdate{UpdateOnStartup: false},
	}
	r, _, library := newTestRefresher(t, cfg)

	require.NoError(t, r.Prime(ctx))

	snap := library.Snapshot()
	require.Len(t, snap.Apps, 1)
	assert.Equal(t, "Safari", snap.Apps[0].Name)
}

func TestPrimeServesCacheWithoutStartupUpdate(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()

	cfg := &config.Config{
		AppDirs:     []config.AppDir{{Path: appRoot, MaxDepth: 2}},
		CacheUpdate: config.CacheUpdate{UpdateOnStartup: false},
	}
	r, store, library := newTestRefresher(t, cfg)

	// Seed the cache with an entry the filesystem no longer has.
	require.NoError(t, store.SaveApps(ctx, []catalog.AppItem{
		{Name: "Ghost", Path: "/Applications/Ghost.app"},
	}))

	require.NoError(t, r.Prime(ctx))

	snap := library.Snapshot()
	require.Len(t, snap.Apps, 1)
	assert.Equal(t, "Ghost", snap.Apps[0].Name)
}

func TestPrimeRefreshesWhenConfigured(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()
	writeTestBundle(t, appRoot, "Safari")

	cfg := &config.Config{
		AppDirs:     []config.AppDir{{Path: appRoot, MaxDepth: 2}},
		CacheUpdate: config.CacheUpdate{UpdateOnStartup: true},
	}
	r, store, library := newTestRefresher(t, cfg)

	require.NoError(t, store.SaveApps(ctx, []catalog.AppItem{
		{Name: "Ghost", Path: "/Applications/Ghost.app"},
	}))

	require.NoError(t, r.Prime(ctx))

	snap := library.Snapshot()
	require.Len(t, snap.Apps, 1)
	assert.Equal(t, "Safari", snap.Apps[0].Name)
}

func TestRefreshReusesUnchangedBundles(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()

	plist := func(name string) string {
		return `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleDisplayName</key>
	<string>` + name + `</string>
</dict>
</plist>
`
	}

	bundlePath := filepath.Join(appRoot, "Notes.app")
	infoPath := filepath.Join(bundlePath, "Contents", "Info.plist")
	require.NoError(t, os.MkdirAll(filepath.Dir(infoPath), 0o755))
	require.NoError(t, os.WriteFile(infoPath, []byte(plist("Memos")), 0o644))

	cfg := &config.Config{AppDirs: []config.AppDir{{Path: appRoot, MaxDepth: 2}}}
	r, _, library := newTestRefresher(t, cfg)

	require.NoError(t, r.Refresh(ctx))
	require.Len(t, library.Snapshot().Apps, 1)
	assert.Equal(t, "Memos", library.Snapshot().Apps[0].Name)

	// Rewriting a file under Contents leaves the bundle directory's
	// modification time and size alone, so the recorded metadata still
	// matches and the previous item is carried forward without a re-read.
	require.NoError(t, os.WriteFile(infoPath, []byte(plist("Renamed")), 0o644))

	require.NoError(t, r.Refresh(ctx))
	require.Len(t, library.Snapshot().Apps, 1)
	assert.Equal(t, "Memos", library.Snapshot().Apps[0].Name)

	// Touching the bundle directory itself invalidates the recorded
	// metadata and forces a fresh read.
	touched := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(bundlePath, touched, touched))

	require.NoError(t, r.Refresh(ctx))
	require.Len(t, library.Snapshot().Apps, 1)
	assert.Equal(t, "Renamed", library.Snapshot().Apps[0].Name)
}

func TestRefreshWithoutMetastore(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()
	writeTestBundle(t, appRoot, "Safari")

	store, err := cachestore.OpenInMemory(ctx)
	require.NoError(t, err)
	defer store.Close()

	cfg := &config.Config{AppDirs: []config.AppDir{{Path: appRoot, MaxDepth: 2}}}
	r := New(cfg, store, nil, catalog.NewLibrary())

	require.NoError(t, r.Refresh(ctx))
}

func TestWatcherSchedulesRefresh(t *testing.T) {
	ctx := context.Background()
	appRoot := t.TempDir()

	cfg := &config.Config{AppDirs: []config.AppDir{{Path: appRoot, MaxDepth: 2}}}
	r, _, library := newTestRefresher(t, cfg)
	require.NoError(t, r.Refresh(ctx))
	assert.Empty(t, library.Snapshot().Apps)

	w := NewWatcher(cfg, r)
	require.NoError(t, w.Start())
	defer w.Stop()
	assert.True(t, w.IsRunning())

	writeTestBundle(t, appRoot, "Fresh")

	deadline := time.After(10 * time.Second)
	for {
		if len(library.Snapshot().Apps) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher never triggered a refresh")
		case <-time.After(50 * time.Millisecond):
		}
	}
	assert.Equal(t, "Fresh", library.Snapshot().Apps[0].Name)
}

func TestWatcherStartStopIdempotent(t *testing.T) {
	cfg := &config.Config{AppDirs: []config.AppDir{{Path: t.TempDir(), MaxDepth: 2}}}
	r, _, _ := newTestRefresher(t, cfg)

	w := NewWatcher(cfg, r)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())

	// Restart after stop.
	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())
	require.NoError(t, w.Stop())
}
