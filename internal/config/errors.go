package config

import "errors"

// ErrUnknownKey indicates a configuration key vidsub does not recognize.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a configuration value outside its allowed set.
var ErrInvalidValue = errors.New("invalid config value")
