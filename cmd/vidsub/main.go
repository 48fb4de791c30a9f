package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/vidsub/internal/apierr"
	"github.com/alnah/vidsub/internal/audio"
	"github.com/alnah/vidsub/internal/cli"
	"github.com/alnah/vidsub/internal/config"
	"github.com/alnah/vidsub/internal/ffmpeg"
	"github.com/alnah/vidsub/internal/interrupt"
	"github.com/alnah/vidsub/internal/lang"
	"github.com/alnah/vidsub/internal/session"
	"github.com/alnah/vidsub/internal/subtitle"
	"github.com/alnah/vidsub/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitExtraction    = 5
	ExitTranscription = 6
	ExitFormatting    = 7
	ExitInterrupt     = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the context, the second exits at once.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.DefaultEnv()
	rootCmd := newRootCmd(env)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		handler.Stop()
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vidsub",
		Short: "Generate subtitles for videos with Whisper",
		Long: `vidsub extracts the audio track of a video, transcribes it with a Whisper
model and writes SubRip (.srt) subtitles.

Use "vidsub serve" for the web page or "vidsub transcribe" for one file.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.CleanCmd(env))
	rootCmd.AddCommand(cli.InspectCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3): the environment cannot run the pipeline.
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, transcribe.ErrAPIKeyMissing) ||
		errors.Is(err, transcribe.ErrModelUnavailable) || errors.Is(err, cli.ErrUnsupportedBackend) ||
		errors.Is(err, session.ErrWorkspaceLocked) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, cli.ErrUnsupportedFormat) || errors.Is(err, cli.ErrFileNotFound) ||
		errors.Is(err, cli.ErrOutputExists) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, transcribe.ErrUnknownModel) || errors.Is(err, config.ErrUnknownKey) ||
		errors.Is(err, config.ErrInvalidValue) || errors.Is(err, subtitle.ErrInvalidSRT) {
		return ExitValidation
	}

	// Pipeline failures carry the stage that failed.
	switch session.KindOf(err) {
	case session.KindExtraction:
		return ExitExtraction
	case session.KindTranscription:
		return ExitTranscription
	case session.KindFormatting:
		return ExitFormatting
	}

	// Extraction errors (ExitExtraction = 5).
	if errors.Is(err, audio.ErrExtractionFailed) || errors.Is(err, audio.ErrUnreadableInput) ||
		errors.Is(err, audio.ErrDecode) || errors.Is(err, ffmpeg.ErrFailed) {
		return ExitExtraction
	}

	// Transcription errors (ExitTranscription = 6).
	if errors.Is(err, transcribe.ErrTranscriptionFailed) || errors.Is(err, transcribe.ErrInvalidOutput) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) {
		return ExitTranscription
	}

	// Formatting errors (ExitFormatting = 7).
	if errors.Is(err, subtitle.ErrMalformedSegment) {
		return ExitFormatting
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
