package audio

import (
	"context"
	"os"

	"github.com/alnah/vidsub/internal/ffmpeg"
)

// ffmpegRunner runs ffmpeg commands. *ffmpeg.Executor implements it.
type ffmpegRunner interface {
	Run(ctx context.Context, ffmpegPath string, args []string) error
	RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error)
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// --- Default implementations using real OS functions ---

var (
	_ ffmpegRunner = (*ffmpeg.Executor)(nil)
	_ fileStatter  = osFileStatter{}
)

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
