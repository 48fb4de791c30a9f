package audio

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

var (
	ParseNoAudio = parseNoAudio
	Downmix      = downmix
	Resample     = resample
	To16Bit      = to16Bit
	ConvertWAV   = convertWAV
	PrimaryArgs  = primaryArgs
	NativeArgs   = nativeArgs
)

// FFmpegRunner exports ffmpegRunner interface for testing.
type FFmpegRunner = ffmpegRunner
