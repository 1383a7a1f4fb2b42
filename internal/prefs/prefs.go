// Package prefs persists courier's device-local flags: onboarding state, the
// session token and the theme. They live in ~/.config/courier/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds persisted preferences.
type Prefs struct {
	IntroCompleted bool   `toml:"intro_completed"`
	AuthToken      string `toml:"auth_token"`
	ThemeMode      string `toml:"theme_mode"`
}

const (
	defaultPrefsPath = "~/.config/courier/prefs.toml"
	defaultThemeMode = "light"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{ThemeMode: defaultThemeMode}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults(), nil
	}

	prefs := defaults()

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

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return defaults(), nil // Graceful degradation
	}

	prefs.AuthToken = strings.TrimSpace(prefs.AuthToken)
	switch strings.ToLower(strings.TrimSpace(prefs.ThemeMode)) {
	case "dark":
		prefs.ThemeMode = "dark"
	default:
		prefs.ThemeMode = defaultThemeMode
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
// The file holds the session token, so it is readable by the owner only.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// File serializes read-modify-write cycles on one preferences file.
type File struct {
	path string
	mu   sync.Mutex
}

// Open returns a File for path; an empty path means DefaultPath.
func Open(path string) *File {
	return &File{path: path}
}

// Load reads the current preferences.
func (f *File) Load() (Prefs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Load(f.path)
}

// Update loads the preferences, applies fn and saves the result.
func (f *File) Update(fn func(*Prefs)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := Load(f.path)
	if err != nil {
		return err
	}
	fn(&p)
	return Save(f.path, p)
}

// LoadToken returns the persisted session token.
func (f *File) LoadToken() (string, error) {
	p, err := f.Load()
	return p.AuthToken, err
}

// SaveToken persists token; an empty token clears it.
func (f *File) SaveToken(token string) error {
	return f.Update(func(p *Prefs) { p.AuthToken = strings.TrimSpace(token) })
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
