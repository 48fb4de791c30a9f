// Package ffmpeg locates and runs the ffmpeg media converter.
package ffmpeg

import (
	"fmt"
)

// EnvPath names the environment variable holding an explicit ffmpeg path.
const EnvPath = "FFMPEG_PATH"

// binaryName is looked up on PATH when nothing is configured.
const binaryName = "ffmpeg"

// Resolver finds the ffmpeg binary. It never downloads anything.
type Resolver struct {
	configured string
	stat       fileStater
	env        envProvider
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConfiguredPath sets the path from the configuration file (ffmpeg_path).
func WithConfiguredPath(path string) ResolverOption {
	return func(r *Resolver) { r.configured = path }
}

// WithFileStater sets the file stat implementation.
func WithFileStater(s fileStater) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStater{},
		env:  osEnvProvider{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. configured path (error if set but invalid)
//  2. FFMPEG_PATH environment variable (error if set but invalid)
//  3. system PATH
func (r *Resolver) Resolve() (string, error) {
	if r.configured != "" {
		return r.check(r.configured, "ffmpeg_path")
	}
	if envPath := r.env.Getenv(EnvPath); envPath != "" {
		return r.check(envPath, EnvPath)
	}
	if path, err := r.env.LookPath(binaryName); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%w: not on PATH (install ffmpeg, set %s, or set ffmpeg_path in the config file)",
		ErrNotFound, EnvPath)
}

// check verifies an explicitly given path points at a file.
func (r *Resolver) check(path, source string) (string, error) {
	info, err := r.stat.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s is set to %q but the binary does not exist", ErrNotFound, source, path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is set to %q which is a directory", ErrNotFound, source, path)
	}
	return path, nil
}
