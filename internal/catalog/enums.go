package catalog

// OpenMode says how a registered directory (or its subdirectories) should
// be opened when selected.
type OpenMode string

const (
	OpenModeNone   OpenMode = "none"
	OpenModeFinder OpenMode = "finder"
	OpenModeEditor OpenMode = "editor"
)

// ParseOpenMode resolves a config identifier to a mode. Unknown identifiers
// map to OpenModeNone rather than failing, so older configs keep loading.
func ParseOpenMode(s string) OpenMode {
	switch OpenMode(s) {
	case OpenModeFinder, OpenModeEditor:
		return OpenMode(s)
	default:
		return OpenModeNone
	}
}

// Editor is a known external editor identifier, resolved once at the config
// boundary instead of re-matching strings throughout the core.
type Editor string

const (
	EditorUnknown     Editor = ""
	EditorCursor      Editor = "cursor"
	EditorVSCode      Editor = "code"
	EditorWindsurf    Editor = "windsurf"
	EditorAntigravity Editor = "antigravity"
)

func ParseEditor(s string) Editor {
	switch Editor(s) {
	case EditorCursor, EditorVSCode, EditorWindsurf, EditorAntigravity:
		return Editor(s)
	default:
		return EditorUnknown
	}
}

// Terminal is a known terminal emulator identifier.
type Terminal string

const (
	TerminalDefault Terminal = "terminal"
	TerminalITerm2  Terminal = "iterm2"
	TerminalWarp    Terminal = "warp"
)

func ParseTerminal(s string) Terminal {
	switch Terminal(s) {
	case TerminalITerm2, TerminalWarp:
		return Terminal(s)
	default:
		return TerminalDefault
	}
}
