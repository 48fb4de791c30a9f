package config

import (
	"fmt"
	"strconv"
	"strings"
)

// field binds a dotted key to a Config field.
type field struct {
	key string
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(key string, ptr func(*Config) *string) field {
	return field{
		key: key,
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = v; return nil },
	}
}

var fields = []field{
	stringField("scratch_dir", func(c *Config) *string { return &c.ScratchDir }),
	stringField("output_dir", func(c *Config) *string { return &c.OutputDir }),
	stringField("ffmpeg_path", func(c *Config) *string { return &c.FFmpegPath }),
	stringField("listen", func(c *Config) *string { return &c.Listen }),
	stringField("log_level", func(c *Config) *string { return &c.LogLevel }),
	stringField("log_format", func(c *Config) *string { return &c.LogFormat }),
	{
		key: "max_concurrent",
		get: func(c *Config) string { return strconv.Itoa(c.MaxConcurrent) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("max_concurrent must be an integer, got %q: %w", v, ErrInvalidValue)
			}
			c.MaxConcurrent = n
			return nil
		},
	},
	stringField("transcriber.backend", func(c *Config) *string { return &c.Transcriber.Backend }),
	stringField("transcriber.model", func(c *Config) *string { return &c.Transcriber.Model }),
	stringField("transcriber.language", func(c *Config) *string { return &c.Transcriber.Language }),
	stringField("transcriber.prompt", func(c *Config) *string { return &c.Transcriber.Prompt }),
	stringField("transcriber.whisper_path", func(c *Config) *string { return &c.Transcriber.WhisperPath }),
}

func lookup(key string) (field, error) {
	for _, f := range fields {
		if f.key == key {
			return f, nil
		}
	}
	return field{}, fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
}

// Keys returns every settable key in file order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// Get returns the value of a dotted key such as "transcriber.model".
func (c *Config) Get(key string) (string, error) {
	f, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(c), nil
}

// Set assigns a dotted key and validates the whole configuration.
// On error c is left unchanged.
func (c *Config) Set(key, value string) error {
	f, err := lookup(key)
	if err != nil {
		return err
	}

	next := *c
	if err := f.set(&next, value); err != nil {
		return err
	}
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Entry is one key/value pair for display.
type Entry struct {
	Key   string
	Value string
}

// List returns all values in key order.
func (c *Config) List() []Entry {
	out := make([]Entry, len(fields))
	for i, f := range fields {
		out[i] = Entry{Key: f.key, Value: f.get(c)}
	}
	return out
}
