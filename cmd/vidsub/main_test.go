package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/vidsub/internal/apierr"
	"github.com/alnah/vidsub/internal/audio"
	"github.com/alnah/vidsub/internal/cli"
	"github.com/alnah/vidsub/internal/config"
	"github.com/alnah/vidsub/internal/ffmpeg"
	"github.com/alnah/vidsub/internal/lang"
	"github.com/alnah/vidsub/internal/session"
	"github.com/alnah/vidsub/internal/subtitle"
	"github.com/alnah/vidsub/internal/transcribe"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), ExitInterrupt},
		{"canceled inside pipeline", &session.Failure{Kind: session.KindExtraction, Err: context.Canceled}, ExitInterrupt},
		{"unknown flag", errors.New("unknown flag: --nope"), ExitUsage},
		{"arg count", errors.New("accepts 1 arg(s), received 0"), ExitUsage},
		{"unknown command", errors.New(`unknown command "x" for "vidsub"`), ExitUsage},
		{"ffmpeg missing", ffmpeg.ErrNotFound, ExitSetup},
		{"api key", transcribe.ErrAPIKeyMissing, ExitSetup},
		{"whisper missing", &session.Failure{Kind: session.KindTranscription, Err: transcribe.ErrModelUnavailable}, ExitSetup},
		{"backend", cli.ErrUnsupportedBackend, ExitSetup},
		{"locked", session.ErrWorkspaceLocked, ExitSetup},
		{"format", &session.Failure{Kind: session.KindValidation, Err: session.ErrUnsupportedFormat}, ExitValidation},
		{"file missing", cli.ErrFileNotFound, ExitValidation},
		{"output exists", cli.ErrOutputExists, ExitValidation},
		{"language", lang.ErrInvalid, ExitValidation},
		{"model", transcribe.ErrUnknownModel, ExitValidation},
		{"config key", config.ErrUnknownKey, ExitValidation},
		{"config value", config.ErrInvalidValue, ExitValidation},
		{"bad srt", subtitle.ErrInvalidSRT, ExitValidation},
		{"extraction stage", &session.Failure{Kind: session.KindExtraction, Err: errors.New("exit status 1")}, ExitExtraction},
		{"extraction sentinel", audio.ErrDecode, ExitExtraction},
		{"transcription stage", &session.Failure{Kind: session.KindTranscription, Err: errors.New("boom")}, ExitTranscription},
		{"rate limit", apierr.ErrRateLimit, ExitTranscription},
		{"formatting stage", &session.Failure{Kind: session.KindFormatting, Err: subtitle.ErrMalformedSegment}, ExitFormatting},
		{"malformed segment", subtitle.ErrMalformedSegment, ExitFormatting},
		{"io stage", &session.Failure{Kind: session.KindIO, Err: errors.New("disk full")}, ExitGeneral},
		{"other", errors.New("something else"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsCobraUsageError(t *testing.T) {
	t.Parallel()

	if isCobraUsageError(nil) {
		t.Error("isCobraUsageError(nil) = true")
	}
	if isCobraUsageError(errors.New("ffmpeg not found")) {
		t.Error("domain error classified as usage error")
	}
	if !isCobraUsageError(errors.New(`required flag(s) "output" not set`)) {
		t.Error("required flag error not classified as usage error")
	}
}

func TestRootCmd(t *testing.T) {
	t.Parallel()

	root := newRootCmd(cli.NewEnv())

	want := []string{"serve", "transcribe", "clean", "inspect", "config"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_UsageErrorsMapToExitUsage(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"transcribe"},
		{"inspect", "a.srt", "b.srt"},
		{"serve", "--nope"},
		{"frobnicate"},
	}

	for _, args := range tests {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			t.Parallel()
			root := newRootCmd(cli.NewEnv())
			root.SetArgs(args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})

			err := root.Execute()
			if got := exitCode(err); got != ExitUsage {
				t.Errorf("exitCode(%v) = %d, want %d", err, got, ExitUsage)
			}
		})
	}
}
