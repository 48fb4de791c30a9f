package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultWhisperBinary is the openai-whisper command looked up on PATH.
const DefaultWhisperBinary = "whisper"

// stderrTail bounds how much CLI output is quoted in errors.
const stderrTail = 2000

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- binary comes from configuration, args are built here
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// WhisperTranscriber runs a local Whisper model through the openai-whisper CLI.
// The CLI loads the model weights on every call.
type WhisperTranscriber struct {
	binary string
	cmd    commandRunner
}

// WhisperOption configures a WhisperTranscriber.
type WhisperOption func(*WhisperTranscriber)

// WithWhisperBinary sets the whisper executable (name on PATH or absolute path).
func WithWhisperBinary(path string) WhisperOption {
	return func(w *WhisperTranscriber) {
		if path != "" {
			w.binary = path
		}
	}
}

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) WhisperOption {
	return func(w *WhisperTranscriber) { w.cmd = r }
}

// NewWhisperTranscriber creates a WhisperTranscriber.
func NewWhisperTranscriber(opts ...WhisperOption) *WhisperTranscriber {
	w := &WhisperTranscriber{
		binary: DefaultWhisperBinary,
		cmd:    osCommandRunner{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ Transcriber = (*WhisperTranscriber)(nil)

// whisperOutput is the JSON document written by `whisper --output_format json`.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs full-file inference and parses the JSON the CLI writes.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	if err := ValidateModel(opts.Model); err != nil {
		return Result{}, err
	}
	if err := checkAudio(audioPath); err != nil {
		return Result{}, err
	}

	outDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisper-*")
	if err != nil {
		return Result{}, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	out, err := w.cmd.CombinedOutput(ctx, w.binary, w.args(audioPath, outDir, opts))
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s not found (install openai-whisper or set transcriber.whisper_path)",
				ErrModelUnavailable, w.binary)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: model %s: %v\n%s", ErrTranscriptionFailed, opts.model(), err, tail(out))
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return readWhisperJSON(filepath.Join(outDir, stem+".json"))
}

// args builds the whisper CLI invocation.
func (w *WhisperTranscriber) args(audioPath, outDir string, opts Options) []string {
	args := []string{
		audioPath,
		"--model", opts.model(),
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
		"--fp16", "False",
	}
	if code := opts.Language.BaseCode(); code != "" {
		args = append(args, "--language", code)
	}
	if opts.Prompt != "" {
		args = append(args, "--initial_prompt", opts.Prompt)
	}
	return args
}

// readWhisperJSON loads a whisper JSON document into a Result.
func readWhisperJSON(path string) (Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is inside our temp dir
	if err != nil {
		return Result{}, fmt.Errorf("%w: read %s: %v", ErrInvalidOutput, filepath.Base(path), err)
	}

	var doc whisperOutput
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("%w: parse whisper json: %v", ErrInvalidOutput, err)
	}

	segments := make([]Segment, len(doc.Segments))
	for i, s := range doc.Segments {
		segments[i] = Segment{Start: s.Start, End: s.End, Text: s.Text}
	}

	return Result{
		Text:     strings.TrimSpace(doc.Text),
		Segments: trimSegments(segments),
		Language: doc.Language,
	}, nil
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
