package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/config"
)

// writeBundle creates a minimal .app bundle fixture under root.
func writeBundle(t *testing.T, root, name string, infoPlist string, extra map[string]string) string {
	t.Helper()
	bundlePath := filepath.Join(root, name+".app")
	contents := filepath.Join(bundlePath, "Contents")
	require.NoError(t, os.MkdirAll(filepath.Join(contents, "Resources"), 0o755))

	if infoPlist != "" {
		require.NoError(t, os.WriteFile(filepath.Join(contents, "Info.plist"), []byte(infoPlist), 0o644))
	}
	for rel, content := range extra {
		path := filepath.Join(bundlePath, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return bundlePath
}

const safariPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>Safari</string>
	<key>CFBundleIconFile</key>
	<string>AppIcon</string>
</dict>
</plist>
`

func scanRoot(t *testing.T, root string, maxDepth int) []string {
	t.Helper()
	cfg := &config.Config{AppDirs: []config.AppDir{{Path: root, MaxDepth: maxDepth}}}
	apps, err := New(cfg).ScanApps(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, len(apps))
	for i, app := range apps {
		names[i] = app.Name
	}
	return names
}

func TestScanAppsFindsBundles(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "Safari", safariPlist, nil)
	writeBundle(t, filepath.Join(root, "Utilities"), "Terminal", "", nil)

	names := scanRoot(t, root, 2)
	assert.Equal(t, []string{"Safari", "Terminal"}, names)
}

func TestScanAppsRespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "Shallow", "", nil)
	writeBundle(t, filepath.Join(root, "a", "b", "c"), "Deep", "", nil)

	names := scanRoot(t, root, 2)
	assert.Equal(t, []string{"Shallow"}, names)
}

func TestScanAppsSkipsHiddenAndNestedBundles(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "Visible", "", nil)
	writeBundle(t, filepath.Join(root, ".hidden"), "Secret", "", nil)

	// A bundle inside another bundle must not surface separately.
	outer := writeBundle(t, root, "Outer", "", nil)
	writeBundle(t, filepath.Join(outer, "Contents", "Helpers"), "Inner", "", nil)

	names := scanRoot(t, root, 5)
	assert.Equal(t, []string{"Outer", "Visible"}, names)
}

func TestScanAppsMissingRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "Safari", safariPlist, nil)

	cfg := &config.Config{AppDirs: []config.AppDir{
		{Path: filepath.Join(root, "does-not-exist"), MaxDepth: 2},
		{Path: root, MaxDepth: 2},
	}}
	apps, err := New(cfg).ScanApps(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Safari", apps[0].Name)
}

func TestScanAppsIncludesScanForAppsDirectories(t *testing.T) {
	appRoot := t.TempDir()
	projRoot := t.TempDir()
	writeBundle(t, appRoot, "Safari", safariPlist, nil)
	writeBundle(t, filepath.Join(projRoot, "builds"), "MyTool", "", nil)

	cfg := &config.Config{
		AppDirs: []config.AppDir{{Path: appRoot, MaxDepth: 2}},
		Directories: []config.Directory{
			{Path: projRoot, OpenMode: "none", SubdirMode: "none", ScanForApps: true},
		},
	}
	apps, err := New(cfg).ScanApps(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, len(apps))
	for i, app := range apps {
		names[i] = app.Name
	}
	assert.Equal(t, []string{"MyTool", "Safari"}, names)
}

func TestScanAppsReuseSkipsBundleRead(t *testing.T) {
	root := t.TempDir()
	bundlePath := writeBundle(t, root, "Safari", safariPlist, nil)

	info, err := os.Stat(bundlePath)
	require.NoError(t, err)

	cached := catalog.AppItem{Name: "Cached Safari", Path: bundlePath, IconPath: "/old/AppIcon.icns"}
	reuse := func(path string, modTime time.Time, size int64) (catalog.AppItem, bool) {
		assert.Equal(t, bundlePath, path)
		assert.True(t, info.ModTime().Equal(modTime))
		assert.Equal(t, info.Size(), size)
		return cached, true
	}

	cfg := &config.Config{AppDirs: []config.AppDir{{Path: root, MaxDepth: 2}}}
	apps, err := New(cfg).ScanApps(context.Background(), reuse)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, cached, apps[0])
}

func TestScanAppsReuseDeclinedReadsBundle(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "Safari", safariPlist, nil)

	reuse := func(path string, modTime time.Time, size int64) (catalog.AppItem, bool) {
		return catalog.AppItem{}, false
	}

	cfg := &config.Config{AppDirs: []config.AppDir{{Path: root, MaxDepth: 2}}}
	apps, err := New(cfg).ScanApps(context.Background(), reuse)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Safari", apps[0].Name)
}

func TestReadBundleIconPath(t *testing.T) {
	root := t.TempDir()
	bundlePath := writeBundle(t, root, "Safari", safariPlist, map[string]string{
		filepath.Join("Contents", "Resources", "AppIcon.icns"): "icon-bytes",
	})

	item := readBundle(bundlePath)
	assert.Equal(t, "Safari", item.Name)
	assert.Empty(t, item.OriginalName)
	assert.Equal(t, filepath.Join(bundlePath, "Contents", "Resources", "AppIcon.icns"), item.IconPath)
}

func TestReadBundleMissingIconFileLeavesPathEmpty(t *testing.T) {
	root := t.TempDir()
	bundlePath := writeBundle(t, root, "Safari", safariPlist, nil)

	item := readBundle(bundlePath)
	assert.Empty(t, item.IconPath)
}

func TestReadBundleDisplayNameSetsOriginalName(t *testing.T) {
	root := t.TempDir()
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleDisplayName</key>
	<string>ターミナル</string>
	<key>CFBundleName</key>
	<string>Terminal</string>
</dict>
</plist>
`
	bundlePath := writeBundle(t, root, "Terminal", plist, nil)

	item := readBundle(bundlePath)
	assert.Equal(t, "ターミナル", item.Name)
	assert.Equal(t, "Terminal", item.OriginalName)
}

func TestReadBundleLocalizedStrings(t *testing.T) {
	t.Setenv("LC_ALL", "ja_JP.UTF-8")

	root := t.TempDir()
	strings := `"CFBundleDisplayName" = "ターミナル";
`
	bundlePath := writeBundle(t, root, "Terminal", safariPlist, map[string]string{
		filepath.Join("Contents", "Resources", "ja.lproj", "InfoPlist.strings"): strings,
	})

	item := readBundle(bundlePath)
	assert.Equal(t, "ターミナル", item.Name)
	assert.Equal(t, "Terminal", item.OriginalName)
}

func TestReadBundleNoPlistFallsBackToStem(t *testing.T) {
	root := t.TempDir()
	bundlePath := writeBundle(t, root, "Bare", "", nil)

	item := readBundle(bundlePath)
	assert.Equal(t, "Bare", item.Name)
	assert.Empty(t, item.OriginalName)
}

func TestParseStringsFile(t *testing.T) {
	entries, err := parseStringsFile([]byte(`"CFBundleDisplayName" = "Notes";
"CFBundleName" = "Notes";
`))
	require.NoError(t, err)
	assert.Equal(t, "Notes", entries["CFBundleDisplayName"])
}

func TestParseStringsFileUTF16(t *testing.T) {
	text := `"CFBundleDisplayName" = "メモ";`

	// UTF-16LE with BOM, the encoding Xcode historically emitted.
	encoded := []byte{0xFF, 0xFE}
	for _, r := range []rune(text) {
		if r < 0x10000 {
			encoded = append(encoded, byte(r), byte(r>>8))
		}
	}

	entries, err := parseStringsFile(encoded)
	require.NoError(t, err)
	assert.Equal(t, "メモ", entries["CFBundleDisplayName"])
}

func TestPreferredLocales(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "ja_JP.UTF-8")

	assert.Equal(t, []string{"ja_JP", "ja"}, preferredLocales())

	t.Setenv("LANG", "C")
	assert.Empty(t, preferredLocales())
}
