package config

import (
	"os"
	"path/filepath"
)

// Paths holds all the file system paths used by the application
type Paths struct {
	Home           string // ~/.par-term
	SessionsRoot   string // ~/.par-term/sessions
	RegistryPath   string // ~/.par-term/sessions.json
	MetadataRoot   string // ~/.par-term/sessions-metadata
	ConfigPath     string // ~/.par-term/config.json
	CacheRoot      string // ~/.par-term/cache
	ShaderCacheDir string // ~/.par-term/cache/shaders
	LogDir         string // ~/.par-term/logs
}

// DefaultPaths returns the default paths configuration
func DefaultPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	base := filepath.Join(home, ".par-term")

	return &Paths{
		Home:           base,
		SessionsRoot:   filepath.Join(base, "sessions"),
		RegistryPath:   filepath.Join(base, "sessions.json"),
		MetadataRoot:   filepath.Join(base, "sessions-metadata"),
		ConfigPath:     filepath.Join(base, "config.json"),
		CacheRoot:      filepath.Join(base, "cache"),
		ShaderCacheDir: filepath.Join(base, "cache", "shaders"),
		LogDir:         filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Home,
		p.SessionsRoot,
		p.MetadataRoot,
		p.CacheRoot,
		p.ShaderCacheDir,
		p.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
