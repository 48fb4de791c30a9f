package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// minMajorVersion is the oldest ffmpeg release known to handle every
// container the upload form accepts.
const minMajorVersion = 4

// VersionChecker verifies ffmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running ffmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: NewExecutor(),
		stderr:   io.Discard,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check reads `ffmpeg -version` and warns when the major version is below
// minMajorVersion. It never fails; the returned string is the first output
// line ("" when the version could not be read).
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) string {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return ""
	}

	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	if line == "" {
		return ""
	}

	var major int
	if _, err := fmt.Sscanf(line, "ffmpeg version %d", &major); err != nil {
		// Git builds report "ffmpeg version n6.1.1".
		if _, err := fmt.Sscanf(line, "ffmpeg version n%d", &major); err != nil {
			return ""
		}
	}

	if major < minMajorVersion {
		_, _ = fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minMajorVersion)
	}
	return line
}
