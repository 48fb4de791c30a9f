package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// stderrTail bounds how much ffmpeg output is quoted in errors.
const stderrTail = 1500

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs ffmpeg commands with injectable dependencies.
type Executor struct {
	runOutput runOutputFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput: defaultRunOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes ffmpeg and captures its console output.
// The output is returned even when the command fails: probing an input
// (ffmpeg -i file) always exits non-zero but lists the streams on stderr.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// Run executes ffmpeg and succeeds only on exit status 0.
// Failures wrap ErrFailed and quote the end of stderr.
func (e *Executor) Run(ctx context.Context, ffmpegPath string, args []string) error {
	out, err := e.runOutput(ctx, ffmpegPath, args)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if msg := tail(out); msg != "" {
		return fmt.Errorf("%w: %v: %s", ErrFailed, err, msg)
	}
	return fmt.Errorf("%w: %v", ErrFailed, err)
}

// defaultRunOutput is the production implementation. Diagnostics go to
// stderr, except -version which prints to stdout, so both are captured.
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	// #nosec G204 -- binary is resolved from configuration, args are built internally
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

func tail(out string) string {
	s := strings.TrimSpace(out)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
