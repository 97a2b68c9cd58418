// Package prefs persists per-view list preferences.
// Preferences are stored in ~/.config/wms/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// View holds what a list screen remembers between runs.
type View struct {
	SortColumn    string `toml:"sort_column,omitempty"`
	SortDirection string `toml:"sort_direction,omitempty"`
	ShowArchived  bool   `toml:"show_archived,omitempty"`
	PageSize      int    `toml:"page_size,omitempty"`
}

// Prefs holds user preferences keyed by view name.
type Prefs struct {
	Views map[string]View `toml:"views"`
}

const defaultPrefsPath = "~/.config/wms/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// View returns the stored preferences for name, or the zero View.
func (p Prefs) View(name string) View {
	return p.Views[name]
}

// SetView stores v under name.
func (p *Prefs) SetView(name string, v View) {
	if p.Views == nil {
		p.Views = make(map[string]View)
	}
	p.Views[name] = v
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Views: map[string]View{}}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	var loaded Prefs
	if err := toml.Unmarshal(bytes, &loaded); err != nil {
		return prefs, nil // Graceful degradation
	}
	for name, v := range loaded.Views {
		if v.PageSize < 0 {
			v.PageSize = 0
		}
		prefs.Views[name] = v
	}
	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
