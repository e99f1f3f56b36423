// Package config resolves shelfsync settings from a TOML file, an optional
// .env file and SHELFSYNC_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the resolved settings
type Config struct {
	DataPath      string        // Local cache database
	RemoteURL     string        // Empty means no remote store
	ProbeInterval time.Duration // Connectivity probe period
	RemoteTimeout time.Duration // Per remote call
	Listen        string        // Bind address of the document store daemon
	DocsPath      string        // Document store daemon database
}

const (
	defaultConfigPath    = "~/.config/shelfsync/config.toml"
	defaultDataPath      = "~/.local/share/shelfsync/library.db"
	defaultDocsPath      = "~/.local/share/shelfsync/docd.db"
	defaultListen        = "127.0.0.1:7490"
	defaultProbeInterval = 5 * time.Second
	defaultRemoteTimeout = 10 * time.Second
)

// Environment overrides
const (
	EnvData          = "SHELFSYNC_DATA"
	EnvRemote        = "SHELFSYNC_REMOTE"
	EnvProbeSeconds  = "SHELFSYNC_PROBE_SECONDS"
	EnvTimeoutSecond = "SHELFSYNC_REMOTE_TIMEOUT_SECONDS"
	EnvListen        = "SHELFSYNC_LISTEN"
	EnvDocs          = "SHELFSYNC_DOCD_DATA"
)

// HasRemote reports whether a remote store is configured
func (c Config) HasRemote() bool {
	return c.RemoteURL != ""
}

// LoadDotEnv loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DataPath:      defaultDataPath,
		ProbeInterval: defaultProbeInterval,
		RemoteTimeout: defaultRemoteTimeout,
		Listen:        defaultListen,
		DocsPath:      defaultDocsPath,
	}

	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.DataPath = mustExpand(cfg.DataPath)
	cfg.DocsPath = mustExpand(cfg.DocsPath)
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		DataPath             string `toml:"data_path"`
		RemoteURL            string `toml:"remote_url"`
		ProbeSeconds         int    `toml:"probe_seconds"`
		RemoteTimeoutSeconds int    `toml:"remote_timeout_seconds"`
		Listen               string `toml:"listen"`
		DocsPath             string `toml:"docd_path"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DataPath); v != "" {
		cfg.DataPath = v
	}
	cfg.RemoteURL = strings.TrimSpace(raw.RemoteURL)
	if raw.ProbeSeconds > 0 {
		cfg.ProbeInterval = time.Duration(raw.ProbeSeconds) * time.Second
	}
	if raw.RemoteTimeoutSeconds > 0 {
		cfg.RemoteTimeout = time.Duration(raw.RemoteTimeoutSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(raw.DocsPath); v != "" {
		cfg.DocsPath = v
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup(EnvData); ok {
		cfg.DataPath = v
	}
	if v, ok := lookup(EnvRemote); ok {
		cfg.RemoteURL = v
	}
	if v, ok := lookup(EnvListen); ok {
		cfg.Listen = v
	}
	if v, ok := lookup(EnvDocs); ok {
		cfg.DocsPath = v
	}

	for _, d := range []struct {
		name   string
		target *time.Duration
	}{
		{EnvProbeSeconds, &cfg.ProbeInterval},
		{EnvTimeoutSecond, &cfg.RemoteTimeout},
	} {
		v, ok := lookup(d.name)
		if !ok {
			continue
		}
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("%s: expected a positive number of seconds, got %q", d.name, v)
		}
		*d.target = time.Duration(secs) * time.Second
	}
	return nil
}

// lookup returns a non-blank environment value
func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
