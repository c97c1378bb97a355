package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeScan()
	c.normalizeProbe()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = toolValue(c.Tools.FFmpeg, "PMTM_FFMPEG", defaultFFmpeg)
	c.Tools.FFprobe = toolValue(c.Tools.FFprobe, "PMTM_FFPROBE", defaultFFprobe)
	c.Tools.Magick = toolValue(c.Tools.Magick, "PMTM_MAGICK", defaultMagick)
}

// toolValue prefers the environment, then the file value, then the default.
func toolValue(current, envKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	current = strings.TrimSpace(current)
	if current == "" {
		return fallback
	}
	if strings.HasPrefix(current, "~") {
		if expanded, err := expandPath(current); err == nil {
			return expanded
		}
	}
	return current
}

func (c *Config) normalizeScan() {
	encodings := make([]string, 0, len(c.Scan.Encodings))
	seen := make(map[string]struct{}, len(c.Scan.Encodings))
	for _, enc := range c.Scan.Encodings {
		normalized := strings.ToLower(strings.TrimSpace(enc))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		encodings = append(encodings, normalized)
	}
	if len(encodings) == 0 {
		encodings = append(encodings, defaultEncodings...)
	}
	c.Scan.Encodings = encodings

	exclude := c.Scan.Exclude[:0]
	for _, pattern := range c.Scan.Exclude {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			exclude = append(exclude, trimmed)
		}
	}
	c.Scan.Exclude = exclude
}

func (c *Config) normalizeProbe() {
	if c.Probe.Concurrency <= 0 {
		c.Probe.Concurrency = defaultProbeConcurrency
	}
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeoutSecond
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
