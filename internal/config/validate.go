package config

import (
	"fmt"
	"slices"

	"github.com/alnah/vidsub/internal/lang"
	"github.com/alnah/vidsub/internal/transcribe"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"console", "json"}
	backends   = []string{BackendWhisper, BackendOpenAI}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.ScratchDir == "" {
		return fmt.Errorf("scratch_dir must be set: %w", ErrInvalidValue)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen must be set: %w", ErrInvalidValue)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d: %w", c.MaxConcurrent, ErrInvalidValue)
	}
	if err := oneOf("log_level", c.LogLevel, logLevels); err != nil {
		return err
	}
	if err := oneOf("log_format", c.LogFormat, logFormats); err != nil {
		return err
	}
	return c.validateTranscriber()
}

func (c *Config) validateTranscriber() error {
	t := c.Transcriber
	if err := oneOf("transcriber.backend", t.Backend, backends); err != nil {
		return err
	}
	// The hosted backend accepts its own model names.
	if t.Backend == BackendWhisper {
		if err := transcribe.ValidateModel(t.Model); err != nil {
			return fmt.Errorf("transcriber.model: %w", err)
		}
	}
	if _, err := lang.Parse(t.Language); err != nil {
		return fmt.Errorf("transcriber.language: %w", err)
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s must be one of %v, got %q: %w", key, allowed, value, ErrInvalidValue)
}
