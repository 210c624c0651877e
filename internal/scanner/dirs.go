package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/log"
)

// BuildDirectories turns the registered directories into searchable items.
// Each entry contributes the parent itself (unless its open mode is none)
// and its immediate non-hidden subdirectories (unless the subdir mode is
// none). Items carry an editor only when the governing mode is editor.
func (s *Scanner) BuildDirectories() []catalog.DirectoryItem {
	var items []catalog.DirectoryItem

	for _, dir := range s.cfg.Directories {
		parentMode := dir.ParentOpenMode()
		if parentMode != catalog.OpenModeNone {
			name := dir.Keyword
			if name == "" {
				name = filepath.Base(dir.Path)
			}
			item := catalog.DirectoryItem{Name: name, Path: dir.Path}
			if parentMode == catalog.OpenModeEditor {
				item.Editor = dir.ParentEditor()
			}
			items = append(items, item)
		}

		subdirMode := dir.SubdirOpenMode()
		if subdirMode == catalog.OpenModeNone {
			continue
		}

		entries, err := os.ReadDir(dir.Path)
		if err != nil {
			log.Warnf("skipping subdirectories of %s: %v", dir.Path, err)
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			item := catalog.DirectoryItem{
				Name: entry.Name(),
				Path: filepath.Join(dir.Path, entry.Name()),
			}
			if subdirMode == catalog.OpenModeEditor {
				item.Editor = dir.SubEditor()
			}
			items = append(items, item)
		}
	}

	return items
}

// CommandItems mirrors the configured command aliases.
func (s *Scanner) CommandItems() []catalog.CommandItem {
	items := make([]catalog.CommandItem, 0, len(s.cfg.Commands))
	for _, cmd := range s.cfg.Commands {
		items = append(items, catalog.CommandItem{
			Alias:      cmd.Alias,
			Command:    cmd.Command,
			WorkingDir: cmd.WorkingDir,
		})
	}
	return items
}
