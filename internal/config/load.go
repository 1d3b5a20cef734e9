package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the daydeck configuration file.
const ConfigFileName = "daydeck.toml"

// FindConfigFile walks up from the given directory to find daydeck.toml,
// then falls back to the user config dir. Returns an empty string if no
// file exists anywhere.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if userDir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(userDir, "daydeck", ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// Load reads the config at path (or the defaults when path is empty),
// applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := NewDefaults()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values so secrets
// can stay out of the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DAYDECK_STORE_URL"); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv("DAYDECK_API_KEY"); v != "" {
		cfg.Store.APIKey = v
	}
	if v := os.Getenv("DAYDECK_REALTIME_URL"); v != "" {
		cfg.Realtime.URL = v
	}
}

// CacheDir resolves the effective cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(base, "daydeck"), nil
}
