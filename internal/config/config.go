package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir   string `toml:"state_dir" json:"state_dir"`
	LogDir     string `toml:"log_dir" json:"log_dir"`
	StagingDir string `toml:"staging_dir" json:"staging_dir"`
}

// Tools holds the external binaries pmtm shells out to. Values may be bare
// command names resolved through PATH or absolute paths.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg" json:"ffmpeg"`
	FFprobe string `toml:"ffprobe" json:"ffprobe"`
	Magick  string `toml:"magick" json:"magick"`
}

// Scan contains settings shared by the scene and media scanners.
type Scan struct {
	Recurse   bool     `toml:"recurse" json:"recurse"`
	Encodings []string `toml:"encodings" json:"encodings"`
	Exclude   []string `toml:"exclude" json:"exclude"`
}

// Probe contains settings for movie metadata probing.
type Probe struct {
	Concurrency    int  `toml:"concurrency" json:"concurrency"`
	Thumbnails     bool `toml:"thumbnails" json:"thumbnails"`
	TimeoutSeconds int  `toml:"timeout_seconds" json:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" json:"format"`
	Level  string `toml:"level" json:"level"`
}

// Config encapsulates all configuration values for pmtm.
//
// Configuration sections by subsystem:
//   - Paths: session state, logs, and scratch space
//   - Tools: ffmpeg, ffprobe, and ImageMagick locations
//   - Scan: scene/media walk defaults and text encodings
//   - Probe: movie probing parallelism and thumbnails
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths" json:"paths"`
	Tools   Tools   `toml:"tools" json:"tools"`
	Scan    Scan    `toml:"scan" json:"scan"`
	Probe   Probe   `toml:"probe" json:"probe"`
	Logging Logging `toml:"logging" json:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pmtm/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pmtm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log, and staging directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.StagingDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the configured ffmpeg executable.
func (c *Config) FFmpegBinary() string {
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.Tools.FFprobe
}

// MagickBinary returns the ImageMagick executable.
func (c *Config) MagickBinary() string {
	return c.Tools.Magick
}

// SessionDBPath is the SQLite file that holds the current reference session.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Paths.StateDir, "session.db")
}

// LockPath is the file locked while a scan or rewrite is running.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "pmtm.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "pmtm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/pmtm"
	}
	return filepath.Join(home, ".local", "state", "pmtm")
}

// Sample returns the commented sample configuration.
func Sample() []byte { return []byte(sampleConfig) }

// WriteSample writes the sample configuration to path, creating parent
// directories. An existing file is an fs.ErrExist error unless overwrite.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
