// Package config loads vidsub settings from a TOML file with environment
// variable overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables.
const (
	EnvConfig     = "VIDSUB_CONFIG"
	EnvScratchDir = "VIDSUB_SCRATCH_DIR"
	EnvOutputDir  = "VIDSUB_OUTPUT_DIR"
)

// Backends.
const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
)

// Transcriber holds speech model settings.
type Transcriber struct {
	Backend     string `toml:"backend"`
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	Prompt      string `toml:"prompt"`
	WhisperPath string `toml:"whisper_path"`
}

// Config holds user configuration loaded from config.toml.
type Config struct {
	ScratchDir    string      `toml:"scratch_dir"`
	OutputDir     string      `toml:"output_dir"`
	FFmpegPath    string      `toml:"ffmpeg_path"`
	Listen        string      `toml:"listen"`
	LogLevel      string      `toml:"log_level"`
	LogFormat     string      `toml:"log_format"`
	MaxConcurrent int         `toml:"max_concurrent"`
	Transcriber   Transcriber `toml:"transcriber"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ScratchDir:    defaultScratchDir(),
		Listen:        "127.0.0.1:8501",
		LogLevel:      "info",
		LogFormat:     "console",
		MaxConcurrent: 1,
		Transcriber: Transcriber{
			Backend: BackendWhisper,
			Model:   "base",
		},
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/vidsub.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vidsub"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vidsub"), nil
}

// Path returns the config file location: VIDSUB_CONFIG if set, otherwise
// config.toml in the configuration directory.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandPath(p), nil
	}
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.toml"), nil
}

// defaultScratchDir follows the XDG cache convention.
func defaultScratchDir() string {
	if base := os.Getenv("XDG_CACHE_HOME"); strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vidsub", "scratch")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "vidsub", "scratch")
	}
	return filepath.Join(os.TempDir(), "vidsub-scratch")
}

// Load reads the config file, applies environment overrides, expands paths
// and validates the result. A missing file is not an error.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(p)
}

// LoadFrom is Load for an explicit file path.
func LoadFrom(p string) (Config, error) {
	cfg, _, err := Read(p)
	if err != nil {
		return Config{}, err
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", p, err)
	}
	return cfg, nil
}

// Read decodes the file at p over the defaults, without environment
// overrides or validation. exists reports whether the file was found.
func Read(p string) (cfg Config, exists bool, err error) {
	cfg = Default()

	data, err := os.ReadFile(p) // #nosec G304 -- config path from XDG dir or VIDSUB_CONFIG
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, true, fmt.Errorf("parse config: %w: %s", ErrUnknownKey, strict.String())
		}
		return Config{}, true, fmt.Errorf("parse config: %w", err)
	}
	return cfg, true, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvScratchDir); v != "" {
		c.ScratchDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
}

func (c *Config) normalize() {
	c.ScratchDir = ExpandPath(strings.TrimSpace(c.ScratchDir))
	c.OutputDir = ExpandPath(strings.TrimSpace(c.OutputDir))
	c.FFmpegPath = ExpandPath(strings.TrimSpace(c.FFmpegPath))
	c.Transcriber.WhisperPath = ExpandPath(strings.TrimSpace(c.Transcriber.WhisperPath))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Transcriber.Backend = strings.ToLower(strings.TrimSpace(c.Transcriber.Backend))
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
}

// Save writes cfg to p, creating the directory if needed.
// The file is replaced atomically.
func Save(p string, cfg Config) error {
	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(d, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
