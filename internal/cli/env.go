package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/alnah/vidsub/internal/audio"
	"github.com/alnah/vidsub/internal/config"
	"github.com/alnah/vidsub/internal/ffmpeg"
	"github.com/alnah/vidsub/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout     io.Writer
	Stderr     io.Writer
	Getenv     func(string) string
	Now        func() time.Time
	IsTerminal func(io.Writer) bool
	Listen     func(network, address string) (net.Listener, error)

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	ExtractorFactory   ExtractorFactory
	TranscriberFactory TranscriberFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	// Resolve returns configured if usable, then $FFMPEG_PATH, then PATH.
	Resolve(configured string) (string, error)
	// CheckVersion returns the version line and warns on w if it is too old.
	CheckVersion(ctx context.Context, ffmpegPath string, w io.Writer) string
}

// ConfigLoader locates and loads configuration.
type ConfigLoader interface {
	Path() (string, error)
	Load() (config.Config, error)
}

// Extractor writes the audio track of a video to a WAV file.
type Extractor interface {
	Extract(ctx context.Context, videoPath, outputPath string) (audio.Extraction, error)
}

// ExtractorFactory creates audio extractors.
type ExtractorFactory interface {
	NewExtractor(ffmpegPath string) (Extractor, error)
}

// TranscriberFactory creates the transcriber selected by cfg.Backend.
type TranscriberFactory interface {
	NewTranscriber(cfg config.Transcriber, apiKey string) (transcribe.Transcriber, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithListen sets the network listener factory used by serve.
func WithListen(fn func(network, address string) (net.Listener, error)) EnvOption {
	return func(e *Env) {
		e.Listen = fn
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithExtractorFactory sets the extractor factory.
func WithExtractorFactory(f ExtractorFactory) EnvOption {
	return func(e *Env) {
		e.ExtractorFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		IsTerminal:         isTerminal,
		Listen:             net.Listen,
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		ExtractorFactory:   &defaultExtractorFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(configured string) (string, error) {
	return ffmpeg.NewResolver(ffmpeg.WithConfiguredPath(configured)).Resolve()
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string, w io.Writer) string {
	return ffmpeg.NewVersionChecker(ffmpeg.WithVersionStderr(w)).Check(ctx, ffmpegPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Path() (string, error) {
	return config.Path()
}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultExtractorFactory implements ExtractorFactory using the audio package.
type defaultExtractorFactory struct{}

func (defaultExtractorFactory) NewExtractor(ffmpegPath string) (Extractor, error) {
	return audio.NewExtractor(ffmpegPath)
}

// defaultTranscriberFactory implements TranscriberFactory with the local
// whisper CLI or the OpenAI API.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(cfg config.Transcriber, apiKey string) (transcribe.Transcriber, error) {
	switch cfg.Backend {
	case config.BackendWhisper, "":
		var opts []transcribe.WhisperOption
		if cfg.WhisperPath != "" {
			opts = append(opts, transcribe.WithWhisperBinary(cfg.WhisperPath))
		}
		return transcribe.NewWhisperTranscriber(opts...), nil
	case config.BackendOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("%w (set it with: export %s=sk-...)", transcribe.ErrAPIKeyMissing, EnvOpenAIAPIKey)
		}
		return transcribe.NewOpenAITranscriber(apiKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ ExtractorFactory   = (*defaultExtractorFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ Extractor          = (*audio.Extractor)(nil)
)
