// Package scanner discovers application bundles and registered directories
// that the cache and search engine work from.
package scanner

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"howett.net/plist"

	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/config"
	"github.com/ignitero/ignitero/internal/errdefs"
	"github.com/ignitero/ignitero/internal/log"
)

// scanForAppsDepth bounds how deep registered directories marked
// scan_for_apps are searched for bundles.
const scanForAppsDepth = 3

type bundleInfo struct {
	DisplayName string `plist:"CFBundleDisplayName"`
	Name        string `plist:"CFBundleName"`
	IconFile    string `plist:"CFBundleIconFile"`
}

type Scanner struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// ReuseFunc lets the caller supply a previously built AppItem for a bundle
// it knows has not changed since the last scan, keyed by the bundle's
// current modification time and size. Returning false forces a full read.
type ReuseFunc func(path string, modTime time.Time, size int64) (catalog.AppItem, bool)

// ScanApps walks the configured application roots, plus any registered
// directories marked scan_for_apps, collecting .app bundles. Unreadable
// roots are logged and skipped; the scan itself keeps going. Bundles the
// reuse hook recognizes as unchanged skip the Info.plist read entirely.
func (s *Scanner) ScanApps(ctx context.Context, reuse ReuseFunc) ([]catalog.AppItem, error) {
	type root struct {
		path     string
		maxDepth int
	}

	var roots []root
	for _, dir := range s.cfg.AppDirs {
		roots = append(roots, root{path: dir.Path, maxDepth: dir.MaxDepth})
	}
	for _, dir := range s.cfg.Directories {
		if dir.ScanForApps {
			roots = append(roots, root{path: dir.Path, maxDepth: scanForAppsDepth})
		}
	}

	seen := make(map[string]bool)
	var apps []catalog.AppItem

	for _, r := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bundles, err := findBundles(r.path, r.maxDepth)
		if err != nil {
			log.Warnf("skipping app root %s: %v", r.path, err)
			continue
		}

		for _, bundlePath := range bundles {
			if seen[bundlePath] {
				continue
			}
			seen[bundlePath] = true

			if reuse != nil {
				if info, err := os.Stat(bundlePath); err == nil {
					if item, ok := reuse(bundlePath, info.ModTime(), info.Size()); ok {
						apps = append(apps, item)
						continue
					}
				}
			}
			apps = append(apps, readBundle(bundlePath))
		}
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// findBundles returns .app bundle paths under rootPath, descending at most
// maxDepth levels and never following symlinks or entering bundles.
func findBundles(rootPath string, maxDepth int) ([]string, error) {
	if _, err := os.Stat(rootPath); err != nil {
		if os.IsPermission(err) {
			return nil, errdefs.NewCustomError(errdefs.ErrTypeFileAccessDenied, rootPath, err)
		}
		return nil, err
	}

	var bundles []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debugf("scan error at %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootPath && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if strings.HasSuffix(d.Name(), ".app") {
			bundles = append(bundles, path)
			return filepath.SkipDir
		}

		if pathDepth(rootPath, path) >= maxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

func pathDepth(rootPath, path string) int {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// readBundle builds an AppItem for a bundle path. Name resolution order:
// localized InfoPlist.strings, CFBundleDisplayName, CFBundleName, then the
// bundle file stem. OriginalName is set only when the resolved display name
// differs from the stem, so localized apps stay findable by both names.
func readBundle(bundlePath string) catalog.AppItem {
	stem := strings.TrimSuffix(filepath.Base(bundlePath), ".app")

	item := catalog.AppItem{
		Name: stem,
		Path: bundlePath,
	}

	var info bundleInfo
	data, err := os.ReadFile(filepath.Join(bundlePath, "Contents", "Info.plist"))
	if err == nil {
		if _, err := plist.Unmarshal(data, &info); err != nil {
			log.Debugf("unparseable Info.plist in %s: %v", bundlePath, err)
		}
	}

	name := localizedDisplayName(bundlePath)
	if name == "" {
		name = info.DisplayName
	}
	if name == "" {
		name = info.Name
	}
	if name != "" {
		item.Name = name
	}
	if item.Name != stem {
		item.OriginalName = stem
	}

	if info.IconFile != "" {
		icon := info.IconFile
		if filepath.Ext(icon) == "" {
			icon += ".icns"
		}
		iconPath := filepath.Join(bundlePath, "Contents", "Resources", icon)
		if _, err := os.Stat(iconPath); err == nil {
			item.IconPath = iconPath
		}
	}

	return item
}

// localizedDisplayName looks up CFBundleDisplayName in the bundle's
// InfoPlist.strings for the user's preferred language, if present.
func localizedDisplayName(bundlePath string) string {
	for _, locale := range preferredLocales() {
		stringsPath := filepath.Join(bundlePath, "Contents", "Resources",
			locale+".lproj", "InfoPlist.strings")
		data, err := os.ReadFile(stringsPath)
		if err != nil {
			continue
		}

		entries, err := parseStringsFile(data)
		if err != nil {
			log.Debugf("unparseable %s: %v", stringsPath, err)
			continue
		}
		if name := entries["CFBundleDisplayName"]; name != "" {
			return name
		}
		if name := entries["CFBundleName"]; name != "" {
			return name
		}
	}
	return ""
}

// preferredLocales derives language candidates from the environment, most
// specific first ("ja_JP" then "ja").
func preferredLocales() []string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(env)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		if i := strings.IndexByte(value, '.'); i >= 0 {
			value = value[:i]
		}

		locales := []string{value}
		if i := strings.IndexByte(value, '_'); i >= 0 {
			locales = append(locales, value[:i])
		}
		return locales
	}
	return nil
}

// parseStringsFile decodes a .strings localization table. These are
// OpenStep-format dictionaries without the surrounding braces, in UTF-8 or
// UTF-16 depending on what generated them.
func parseStringsFile(data []byte) (map[string]string, error) {
	data = decodeUTF16IfNeeded(data)
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]string{}, nil
	}
	if trimmed[0] != '{' {
		wrapped := make([]byte, 0, len(trimmed)+2)
		wrapped = append(wrapped, '{')
		wrapped = append(wrapped, trimmed...)
		wrapped = append(wrapped, '}')
		trimmed = wrapped
	}

	entries := make(map[string]string)
	if _, err := plist.Unmarshal(trimmed, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeUTF16IfNeeded(data []byte) []byte {
	if len(data) < 2 {
		return data
	}

	var bigEndian bool
	switch {
	case data[0] == 0xFE && data[1] == 0xFF:
		bigEndian = true
	case data[0] == 0xFF && data[1] == 0xFE:
		bigEndian = false
	default:
		return data
	}

	data = data[2:]
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if bigEndian {
			units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
		} else {
			units = append(units, uint16(data[i+1])<<8|uint16(data[i]))
		}
	}
	return []byte(string(utf16.Decode(units)))
}
