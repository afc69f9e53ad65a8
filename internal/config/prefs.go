package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.yaml.in/yaml/v3"
)

// Prefs manages the agent's persisted preferences.
type Prefs struct {
	path string
	Data PrefsData
}

// PrefsData represents persisted user preferences.
type PrefsData struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// LoadPrefs retrieves preferences from the user config dir, creating defaults if needed.
func LoadPrefs() (*Prefs, error) {
	path, err := resolvePath()
	if err != nil {
		return nil, err
	}
	return LoadPrefsFrom(path)
}

// LoadPrefsFrom reads preferences at path, writing defaults when the file is missing.
func LoadPrefsFrom(path string) (*Prefs, error) {
	data := PrefsData{}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat prefs: %w", err)
		}
		data = defaultPrefs()
		if err := writePrefs(path, data); err != nil {
			return nil, err
		}
	} else {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prefs: %w", err)
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse prefs: %w", err)
		}
	}

	if data.Timezone == "" {
		data.Timezone = defaultTimezone()
	}
	if data.Name == "" {
		data.Name = defaultName()
	}
	return &Prefs{path: path, Data: data}, nil
}

// Save writes the current preferences to disk.
func (p *Prefs) Save() error {
	if p == nil {
		return errors.New("nil prefs")
	}
	return writePrefs(p.path, p.Data)
}

// Path is the preferences file location.
func (p *Prefs) Path() string {
	if p == nil {
		return ""
	}
	return p.path
}

// SetTimezone validates and stores an IANA zone name.
func (p *Prefs) SetTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	p.Data.Timezone = name
	return nil
}

// Location returns the configured timezone, defaulting to UTC on error.
func (p *Prefs) Location() *time.Location {
	if p == nil {
		return time.UTC
	}
	if loc, err := time.LoadLocation(p.Data.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func resolvePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve config directory: %w", err)
		}
	}
	dir := filepath.Join(base, "fnaterm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return filepath.Join(dir, "prefs.yaml"), nil
}

func writePrefs(path string, data PrefsData) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func defaultPrefs() PrefsData {
	return PrefsData{
		Name:     defaultName(),
		Timezone: defaultTimezone(),
	}
}

func defaultName() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if runtime.GOOS == "windows" {
		if name := os.Getenv("USERNAME"); name != "" {
			return name
		}
	}
	return "FNA Agent"
}

func defaultTimezone() string {
	if locName := time.Now().Location().String(); locName != "Local" && locName != "" {
		return locName
	}
	return "UTC"
}
