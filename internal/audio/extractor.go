// Package audio extracts the speech track of a video as mono 16 kHz PCM WAV.
package audio

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alnah/vidsub/internal/ffmpeg"
)

// Output format expected by speech models.
const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16
)

// Strategy names the method that produced the audio file.
type Strategy string

// Extraction strategies, in the order they are tried.
const (
	StrategyNone     Strategy = "none"
	StrategyFFmpeg   Strategy = "ffmpeg"
	StrategyFallback Strategy = "decoder"
)

// Extraction reports how the audio file was produced. Warnings holds
// non-fatal problems, such as the primary strategy failing before the
// fallback succeeded.
type Extraction struct {
	Strategy Strategy
	Warnings []string
}

// Extractor writes the audio track of a video to a WAV file.
//
// The primary strategy asks ffmpeg for the target format directly. If that
// fails, the fallback runs exactly once: ffmpeg dumps the track at its native
// rate and layout, and the downmix and resampling happen in-process.
type Extractor struct {
	ffmpegPath string
	runner     ffmpegRunner
	stat       fileStatter
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithFFmpegRunner sets the ffmpeg runner (for testing).
func WithFFmpegRunner(r ffmpegRunner) ExtractorOption {
	return func(e *Extractor) { e.runner = r }
}

// WithFileStatter sets the file stat implementation (for testing).
func WithFileStatter(s fileStatter) ExtractorOption {
	return func(e *Extractor) { e.stat = s }
}

// NewExtractor creates an Extractor. ffmpegPath must be a resolved binary path.
func NewExtractor(ffmpegPath string, opts ...ExtractorOption) (*Extractor, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	e := &Extractor{
		ffmpegPath: ffmpegPath,
		runner:     ffmpeg.NewExecutor(),
		stat:       osFileStatter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract writes the audio of videoPath to outputPath as mono 16 kHz 16-bit
// PCM WAV, replacing any existing file.
//
// Errors:
//   - ErrUnreadableInput if videoPath is missing or not a file
//   - ErrNoAudioTrack if both strategies failed and the video has no audio stream
//   - ErrExtractionFailed if both strategies failed for another reason
//   - ctx.Err() if ctx was canceled
func (e *Extractor) Extract(ctx context.Context, videoPath, outputPath string) (Extraction, error) {
	info, err := e.stat.Stat(videoPath)
	if err != nil {
		return Extraction{Strategy: StrategyNone}, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	if info.IsDir() {
		return Extraction{Strategy: StrategyNone}, fmt.Errorf("%w: %s is a directory", ErrUnreadableInput, videoPath)
	}

	primaryErr := e.runner.Run(ctx, e.ffmpegPath, primaryArgs(videoPath, outputPath))
	if primaryErr == nil {
		return Extraction{Strategy: StrategyFFmpeg}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Extraction{Strategy: StrategyNone}, ctxErr
	}

	result := Extraction{
		Strategy: StrategyNone,
		Warnings: []string{fmt.Sprintf("ffmpeg extraction failed, trying the fallback decoder: %v", primaryErr)},
	}

	fallbackErr := e.fallback(ctx, videoPath, outputPath)
	if fallbackErr == nil {
		result.Strategy = StrategyFallback
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	if e.hasNoAudio(ctx, videoPath) {
		return result, fmt.Errorf("%w: %s", ErrNoAudioTrack, videoPath)
	}
	return result, fmt.Errorf("%w: ffmpeg: %w; fallback: %w", ErrExtractionFailed, primaryErr, fallbackErr)
}

// primaryArgs converts straight to the target format.
func primaryArgs(videoPath, outputPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		outputPath,
	}
}

// nativeArgs dumps the first audio track as 16-bit PCM at its own rate and
// channel layout.
func nativeArgs(videoPath, outputPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-map", "0:a:0",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		outputPath,
	}
}

// fallback decodes the native track and converts it in-process.
func (e *Extractor) fallback(ctx context.Context, videoPath, outputPath string) error {
	native := outputPath + ".native.wav"
	defer func() { _ = os.Remove(native) }()

	if err := e.runner.Run(ctx, e.ffmpegPath, nativeArgs(videoPath, native)); err != nil {
		return fmt.Errorf("decode native track: %w", err)
	}
	if err := convertWAV(native, outputPath); err != nil {
		_ = os.Remove(outputPath)
		return err
	}
	return nil
}

// hasNoAudio probes the container. It reports true only when ffmpeg lists
// streams and none of them is audio; an unreadable file is not "no audio".
func (e *Extractor) hasNoAudio(ctx context.Context, videoPath string) bool {
	// ffmpeg exits non-zero without an output file; the listing is still on stderr.
	out, _ := e.runner.RunOutput(ctx, e.ffmpegPath, []string{"-hide_banner", "-i", videoPath})
	return parseNoAudio(out)
}

func parseNoAudio(probe string) bool {
	var streams, audio int
	for line := range strings.Lines(probe) {
		if !strings.Contains(line, "Stream #") {
			continue
		}
		streams++
		if strings.Contains(line, "Audio:") {
			audio++
		}
	}
	return streams > 0 && audio == 0
}
