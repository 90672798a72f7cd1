// Package prefs persists per-user display preferences for the ReWear client
// in ~/.config/rewear/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/rewear/internal/config"
)

// Filters are the listing filters restored at startup.
type Filters struct {
	Category  string `toml:"category,omitempty"`
	Size      string `toml:"size,omitempty"`
	Condition string `toml:"condition,omitempty"`
}

// Prefs holds display preferences. A zero PageSize means "use the config".
type Prefs struct {
	Theme    string  `toml:"theme"`
	PageSize int     `toml:"page_size,omitempty"`
	Filters  Filters `toml:"filters"`
}

const (
	defaultPrefsPath = "~/.config/rewear/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the preferences used when nothing usable is stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem reading or parsing the file
// yields defaults; preferences are never worth failing startup over.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Default()
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default()
	}
	return p.normalise()
}

func (p Prefs) normalise() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	if p.PageSize < 0 {
		p.PageSize = 0
	}
	p.Filters.Category = strings.TrimSpace(p.Filters.Category)
	p.Filters.Size = strings.TrimSpace(p.Filters.Size)
	p.Filters.Condition = strings.TrimSpace(p.Filters.Condition)
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalise())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
