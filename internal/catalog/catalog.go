// Package catalog holds the launchable item types shared by the scanner,
// cache store, search engine, and serving layers.
package catalog

// AppItem is one installed application. Path is the identity key.
// OriginalName carries the non-localized bundle name when it differs from
// the display name, so either spelling can be searched.
type AppItem struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	IconPath     string `json:"icon_path,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
}

// DirectoryItem is one openable directory. Path is the identity key.
// Editor names the editor that should open it; empty means the default
// file browser.
type DirectoryItem struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Editor Editor `json:"editor,omitempty"`
}

// CommandItem mirrors one user-configured shell command. Alias is the
// search key.
type CommandItem struct {
	Alias      string `json:"alias"`
	Command    string `json:"command"`
	WorkingDir string `json:"working_dir,omitempty"`
}
