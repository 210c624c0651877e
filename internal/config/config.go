package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/errdefs"
	"github.com/ignitero/ignitero/internal/log"
)

// AppDir is one application root to scan for .app bundles.
type AppDir struct {
	Path     string `toml:"path"`
	MaxDepth int    `toml:"max_depth"`
}

// Directory is a user-registered directory. The parent entry and its
// immediate subdirectories can each carry their own open behavior.
type Directory struct {
	Path         string `toml:"path"`
	Keyword      string `toml:"keyword,omitempty"`
	OpenMode     string `toml:"open_mode"`
	Editor       string `toml:"editor,omitempty"`
	SubdirMode   string `toml:"subdir_mode"`
	SubdirEditor string `toml:"subdir_editor,omitempty"`
	ScanForApps  bool   `toml:"scan_for_apps"`
}

// Command is a user-defined command alias surfaced in search.
type Command struct {
	Alias      string `toml:"alias"`
	Command    string `toml:"command"`
	WorkingDir string `toml:"working_dir,omitempty"`
}

type CacheUpdate struct {
	UpdateOnStartup         bool `toml:"update_on_startup"`
	AutoUpdateEnabled       bool `toml:"auto_update_enabled"`
	AutoUpdateIntervalHours int  `toml:"auto_update_interval_hours"`
}

type Config struct {
	CachePath       string      `toml:"cache_path"`
	ListenAddr      string      `toml:"listen_addr"`
	DefaultTerminal string      `toml:"default_terminal"`
	CacheUpdate     CacheUpdate `toml:"cache_update"`
	AppDirs         []AppDir    `toml:"app_dirs"`
	Directories     []Directory `toml:"directories"`
	Commands        []Command   `toml:"commands"`
}

func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		CachePath:       getDefaultCachePath(),
		ListenAddr:      ":43690",
		DefaultTerminal: string(catalog.TerminalDefault),
		CacheUpdate: CacheUpdate{
			UpdateOnStartup:         true,
			AutoUpdateEnabled:       true,
			AutoUpdateIntervalHours: 6,
		},
		AppDirs: []AppDir{
			{Path: "/Applications", MaxDepth: 2},
			{Path: filepath.Join(home, "Applications"), MaxDepth: 3},
		},
	}
}

// Load reads the config at path, writing the defaults there first when no
// file exists yet.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(path); err != nil {
			log.Warnf("failed to create default config at %s: %v", path, err)
		} else {
			log.Infof("created default config at %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeInvalidConfig,
			"failed to parse config file", err)
	}

	return cfg, nil
}

func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	f.WriteString("# Ignitero Configuration\n")
	f.WriteString("# See https://github.com/ignitero/ignitero for documentation\n\n")

	return toml.NewEncoder(f).Encode(c)
}

// Terminal resolves the configured terminal name into the closed enum.
// Unknown names fall back to the system default terminal.
func (c *Config) Terminal() catalog.Terminal {
	return catalog.ParseTerminal(c.DefaultTerminal)
}

// ParentOpenMode resolves a directory's parent open mode string.
func (d *Directory) ParentOpenMode() catalog.OpenMode {
	return catalog.ParseOpenMode(d.OpenMode)
}

// SubdirOpenMode resolves a directory's subdirectory open mode string.
func (d *Directory) SubdirOpenMode() catalog.OpenMode {
	return catalog.ParseOpenMode(d.SubdirMode)
}

// ParentEditor resolves the parent editor name; EditorUnknown when unset or
// not recognized.
func (d *Directory) ParentEditor() catalog.Editor {
	return catalog.ParseEditor(d.Editor)
}

func (d *Directory) SubEditor() catalog.Editor {
	return catalog.ParseEditor(d.SubdirEditor)
}

func getDefaultCachePath() string {
	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
	} else {
		base = os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".cache")
		}
	}
	return filepath.Join(base, "ignitero", "cache.db")
}

func GetDefaultConfigPath() string {
	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "ignitero", "config.toml")
}
