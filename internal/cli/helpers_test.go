package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/vidsub/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	extractor      *mockExtractorFactory
	transcriber    *mockTranscriberFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		extractor:      &mockExtractorFactory{},
		transcriber:    &mockTranscriberFactory{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnv returns an Env whose config points the scratch and output
// directories at fresh temp dirs, plus the mocks for assertions.
func testEnv(t *testing.T) (*Env, *testMocks, *syncBuffer, *syncBuffer) {
	t.Helper()

	mocks := newTestMocks()
	cfg := testConfig(t)
	mocks.configLoader.LoadFunc = func() (config.Config, error) { return cfg, nil }

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := &Env{
		Stdout:             stdout,
		Stderr:             stderr,
		Getenv:             defaultTestEnv,
		Now:                fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		IsTerminal:         func(io.Writer) bool { return false },
		FFmpegResolver:     mocks.ffmpegResolver,
		ConfigLoader:       mocks.configLoader,
		ExtractorFactory:   mocks.extractor,
		TranscriberFactory: mocks.transcriber,
	}
	return env, mocks, stdout, stderr
}

// testConfig returns the default config with scratch and output dirs in
// t.TempDir().
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ScratchDir = filepath.Join(t.TempDir(), "scratch")
	cfg.OutputDir = t.TempDir()
	return cfg
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns an OpenAI key.
func defaultTestEnv(key string) string {
	if key == EnvOpenAIAPIKey {
		return "test-openai-key"
	}
	return ""
}

// createTestVideo creates a small placeholder video file.
func createTestVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake video content"), 0644); err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}
	return path
}

// scratchEntries lists the request directories left in dir.
func scratchEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("os.ReadDir(%s) unexpected error: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
