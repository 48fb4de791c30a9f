package session

import (
	"context"

	"github.com/alnah/vidsub/internal/audio"
)

// extractor writes the audio track of a video to a WAV file.
// Satisfied by *audio.Extractor.
type extractor interface {
	Extract(ctx context.Context, videoPath, outputPath string) (audio.Extraction, error)
}
