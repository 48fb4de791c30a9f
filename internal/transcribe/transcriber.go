package transcribe

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/alnah/vidsub/internal/lang"
)

// DefaultModel is the Whisper size used when none is configured.
const DefaultModel = "base"

// models lists the Whisper checkpoints the local backend accepts.
// Accuracy/latency tradeoffs are defined by the model provider.
var models = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large", "large-v1", "large-v2", "large-v3",
	"turbo",
}

// Models returns the supported model names in size order.
func Models() []string {
	return slices.Clone(models)
}

// ValidateModel returns ErrUnknownModel if name is not a supported model.
// An empty name is valid and selects DefaultModel.
func ValidateModel(name string) error {
	if name == "" || slices.Contains(models, name) {
		return nil
	}
	return fmt.Errorf("%q (available: %s): %w", name, strings.Join(models, ", "), ErrUnknownModel)
}

// Segment is a timed span of recognized speech. Times are seconds from the
// start of the audio.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is the complete output of one transcription: the full transcript and
// its timed segments ordered by Start. Language is what the model detected or
// was told to use; it may be empty.
type Result struct {
	Text     string
	Segments []Segment
	Language string
}

// IsEmpty reports whether no speech was recognized.
func (r Result) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == "" && len(r.Segments) == 0
}

// Options configures one transcription call.
type Options struct {
	// Model selects the checkpoint. Empty means DefaultModel.
	Model string

	// Language forces the spoken language. Zero value lets the model detect it.
	Language lang.Language

	// Prompt gives the model vocabulary or context hints.
	Prompt string
}

// model returns the effective model name.
func (o Options) model() string {
	if o.Model == "" {
		return DefaultModel
	}
	return o.Model
}

// Transcriber converts an audio file to a Result. Inference is all-or-nothing:
// on error no partial Result is returned.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error)
}

// checkAudio verifies audioPath exists and is a regular file.
func checkAudio(audioPath string) error {
	info, err := os.Stat(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrAudioNotFound, audioPath)
		}
		return fmt.Errorf("cannot access audio file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrAudioNotFound, audioPath)
	}
	return nil
}

// trimSegments strips the leading space Whisper puts on segment text.
// Boundaries and count are left exactly as the model produced them.
func trimSegments(in []Segment) []Segment {
	out := make([]Segment, len(in))
	for i, s := range in {
		s.Text = strings.TrimSpace(s.Text)
		out[i] = s
	}
	return out
}
