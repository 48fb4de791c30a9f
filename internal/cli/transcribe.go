package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/vidsub/internal/config"
	"github.com/alnah/vidsub/internal/lang"
	"github.com/alnah/vidsub/internal/session"
	"github.com/alnah/vidsub/internal/transcribe"
)

// transcribeFlags holds the transcribe command line.
type transcribeFlags struct {
	output   string
	backend  string
	model    string
	language string
	prompt   string
	keep     bool
}

// deriveOutputPath converts a video file name to a subtitle file name.
// Example: "talk.mp4" -> "talk.srt"
func deriveOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".srt"
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var f transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe <video-file>",
		Short: "Generate subtitles for a video file",
		Long: `Generate SubRip subtitles for a video file.

The audio track is extracted with FFmpeg as mono 16 kHz PCM. If that fails,
FFmpeg dumps the native audio track and the built-in decoder downmixes and
resamples it. The audio is then transcribed with Whisper and written as
numbered cues.
The transcript is printed to stdout; progress goes to stderr.

Supported formats: ` + strings.Join(session.Extensions, ", "),
		Example: `  vidsub transcribe talk.mp4
  vidsub transcribe talk.mkv -o subs/talk.srt --model small
  vidsub transcribe interview.mov -l fr --prompt "Names: Amélie, Yann"
  vidsub transcribe talk.mp4 --backend openai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), env, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path (default: <video>.srt)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Transcription backend: whisper, openai")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Speech model (whisper: "+strings.Join(transcribe.Models(), ", ")+")")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Spoken language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Vocabulary hint passed to the model")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "Keep the request scratch directory after the run")

	return cmd
}

// runTranscribe executes the subtitle pipeline for one video.
// Validation order: file exists -> format -> config -> flags -> output -> transcriber -> ffmpeg
func runTranscribe(ctx context.Context, env *Env, inputPath string, f transcribeFlags) error {
	// === VALIDATION (fail-fast) ===

	// 1. File exists
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, inputPath)
	}

	// 2. Format supported
	if err := session.ValidateFilename(inputPath); err != nil {
		return err
	}

	// 3. Config
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	// 4. Flag overrides, validated like config values
	overrides := []struct{ key, value string }{
		{"transcriber.backend", f.backend},
		{"transcriber.model", f.model},
		{"transcriber.language", f.language},
		{"transcriber.prompt", f.prompt},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := cfg.Set(o.key, o.value); err != nil {
			return err
		}
	}
	language, err := lang.Parse(cfg.Transcriber.Language)
	if err != nil {
		return err
	}

	// 5. Output path must be free before any work is done
	output := config.ResolveOutputPath(f.output, cfg.OutputDir, deriveOutputPath(inputPath))
	if _, err := os.Stat(output); err == nil {
		return fmt.Errorf("output file already exists: %s: %w", output, ErrOutputExists)
	}

	// 6. Transcriber (API key checked here)
	transcriber, err := env.TranscriberFactory.NewTranscriber(cfg.Transcriber, env.Getenv(EnvOpenAIAPIKey))
	if err != nil {
		return err
	}

	// === SETUP ===

	ffmpegPath, err := env.FFmpegResolver.Resolve(cfg.FFmpegPath)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath, env.Stderr)

	extractor, err := env.ExtractorFactory.NewExtractor(ffmpegPath)
	if err != nil {
		return err
	}

	ws, err := session.NewWorkspace(cfg.ScratchDir)
	if err != nil {
		return err
	}

	ctrl := session.NewController(ws, extractor, transcriber,
		session.WithTranscribeOptions(transcribe.Options{
			Model:    cfg.Transcriber.Model,
			Language: language,
			Prompt:   cfg.Transcriber.Prompt,
		}),
		session.WithReporter(newEventPrinter(env, env.Stderr)),
	)

	// === PIPELINE ===

	// #nosec G304 -- user-specified input file
	video, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("cannot open input file: %w", err)
	}
	defer func() { _ = video.Close() }()

	out, runErr := ctrl.Process(ctx, session.Upload{Filename: filepath.Base(inputPath), Body: video})
	defer cleanupRequest(env, ws, out, f.keep)
	if runErr != nil {
		return runErr
	}

	// === WRITE OUTPUT ===

	data, err := os.ReadFile(out.SubtitlePath)
	if err != nil {
		return fmt.Errorf("cannot read generated subtitles: %w", err)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil { // #nosec G301 -- user output dir
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	if err := writeFileAtomic(output, data); err != nil {
		return err
	}

	if text := strings.TrimSpace(out.Result.Text); text != "" {
		_, _ = fmt.Fprintln(env.Stdout, text)
	}
	if out.Result.Language != "" {
		_, _ = fmt.Fprintf(env.Stderr, "Detected language: %s\n", lang.Describe(out.Result.Language))
	}
	_, _ = fmt.Fprintf(env.Stderr, "Done: %s (%d cues)\n", output, out.Document.Len())
	return nil
}

// cleanupRequest removes the request scratch directory unless keep is set.
func cleanupRequest(env *Env, ws *session.Workspace, out *session.Outcome, keep bool) {
	if out == nil || out.RequestID == "" {
		return
	}
	req, err := ws.Lookup(out.RequestID)
	if err != nil {
		return
	}
	if keep {
		_, _ = fmt.Fprintf(env.Stderr, "Scratch files kept in %s\n", req.Dir)
		return
	}
	if err := os.RemoveAll(req.Dir); err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Warning: failed to remove scratch files: %v\n", err)
	}
}
