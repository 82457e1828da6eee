// Package config loads concord's optional driver configuration from a
// .concord.toml file: the merge size gate, per-extension fallback
// overrides, and whether the audit log is enabled.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is concord's on-disk driver configuration.
type Config struct {
	// MaxInputBytes overrides the default 1,000,000-byte fallback gate.
	// Zero means "use the default".
	MaxInputBytes int64 `toml:"max_input_bytes"`
	// ForceFallback lists file extensions (including the leading dot) that
	// always go through the line-level fallback merger, bypassing the
	// entity resolver even when a parser is registered.
	ForceFallback []string `toml:"force_fallback"`
	// AuditLog enables the append-only conflict audit trail.
	AuditLog bool `toml:"audit_log"`
	// AuditLogPath overrides the audit log's default location.
	AuditLogPath string `toml:"audit_log_path"`
}

// Default returns concord's configuration when no .concord.toml is present.
func Default() *Config {
	return &Config{}
}

// Load reads path, an on-disk .concord.toml file. A missing file returns
// Default() rather than an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	return cfg, nil
}

// LoadFromDir looks for ".concord.toml" in dir.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, ".concord.toml"))
}

// Write atomically writes cfg to path.
func Write(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".concord-config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// ForcesFallback reports whether ext (including the leading dot, e.g.
// ".vue") is configured to always use the line-level fallback merger.
func (c *Config) ForcesFallback(ext string) bool {
	for _, e := range c.ForceFallback {
		if e == ext {
			return true
		}
	}
	return false
}

// SizeGate returns the configured max-input-bytes threshold, or fallback if
// unset.
func (c *Config) SizeGate(fallback int64) int64 {
	if c.MaxInputBytes > 0 {
		return c.MaxInputBytes
	}
	return fallback
}
