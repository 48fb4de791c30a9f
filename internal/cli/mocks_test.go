package cli

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/alnah/vidsub/internal/audio"
	"github.com/alnah/vidsub/internal/config"
	"github.com/alnah/vidsub/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(configured string) (string, error)

	mu            sync.Mutex
	resolveCalls  []string
	versionChecks int
}

func (m *mockFFmpegResolver) Resolve(configured string) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, configured)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(configured)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(_ context.Context, _ string, _ io.Writer) string {
	m.mu.Lock()
	m.versionChecks++
	m.mu.Unlock()
	return "ffmpeg version 6.1"
}

func (m *mockFFmpegResolver) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolveCalls...)
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
	path     string

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Path() (string, error) {
	return m.path, nil
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	if m.path != "" {
		return config.LoadFrom(m.path)
	}
	return config.Default(), nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ExtractorFactory + Extractor
// ---------------------------------------------------------------------------

type mockExtractorFactory struct {
	NewExtractorErr error
	extractor       *mockExtractor

	mu          sync.Mutex
	ffmpegPaths []string
}

func (m *mockExtractorFactory) NewExtractor(ffmpegPath string) (Extractor, error) {
	m.mu.Lock()
	m.ffmpegPaths = append(m.ffmpegPaths, ffmpegPath)
	if m.extractor == nil {
		m.extractor = &mockExtractor{}
	}
	ex := m.extractor
	m.mu.Unlock()

	if m.NewExtractorErr != nil {
		return nil, m.NewExtractorErr
	}
	return ex, nil
}

// mockExtractor writes a placeholder WAV unless ExtractFunc is set.
type mockExtractor struct {
	ExtractFunc func(ctx context.Context, videoPath, outputPath string) (audio.Extraction, error)

	mu    sync.Mutex
	calls int
}

func (m *mockExtractor) Extract(ctx context.Context, videoPath, outputPath string) (audio.Extraction, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, videoPath, outputPath)
	}
	if err := os.WriteFile(outputPath, []byte("RIFF"), 0o600); err != nil {
		return audio.Extraction{}, err
	}
	return audio.Extraction{Strategy: audio.StrategyFFmpeg}, nil
}

func (m *mockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	NewTranscriberErr error
	transcriber       *mockTranscriber

	mu    sync.Mutex
	calls []transcriberCall
}

type transcriberCall struct {
	Config config.Transcriber
	APIKey string
}

func (m *mockTranscriberFactory) NewTranscriber(cfg config.Transcriber, apiKey string) (transcribe.Transcriber, error) {
	m.mu.Lock()
	m.calls = append(m.calls, transcriberCall{Config: cfg, APIKey: apiKey})
	if m.transcriber == nil {
		m.transcriber = &mockTranscriber{}
	}
	tr := m.transcriber
	m.mu.Unlock()

	if m.NewTranscriberErr != nil {
		return nil, m.NewTranscriberErr
	}
	return tr, nil
}

func (m *mockTranscriberFactory) Calls() []transcriberCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcriberCall(nil), m.calls...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string, opts transcribe.Options) (transcribe.Result, error)

	mu    sync.Mutex
	calls []transcribe.Options
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (transcribe.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath, opts)
	}
	return transcribe.Result{
		Text: "Hello world. Second line.",
		Segments: []transcribe.Segment{
			{Start: 0, End: 1.5, Text: "Hello world."},
			{Start: 1.5, End: 3.25, Text: "Second line."},
		},
		Language: "en",
	}, nil
}

func (m *mockTranscriber) Calls() []transcribe.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcribe.Options(nil), m.calls...)
}

// Compile-time interface verification.
var (
	_ FFmpegResolver         = (*mockFFmpegResolver)(nil)
	_ ConfigLoader           = (*mockConfigLoader)(nil)
	_ ExtractorFactory       = (*mockExtractorFactory)(nil)
	_ TranscriberFactory     = (*mockTranscriberFactory)(nil)
	_ transcribe.Transcriber = (*mockTranscriber)(nil)
)
