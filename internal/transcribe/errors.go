package transcribe

import "errors"

// ErrUnknownModel indicates a model name outside the supported Whisper sizes.
var ErrUnknownModel = errors.New("unknown model")

// ErrModelUnavailable indicates the speech model could not be loaded
// (CLI not installed, weights missing, backend not configured).
var ErrModelUnavailable = errors.New("speech model unavailable")

// ErrTranscriptionFailed indicates inference ran but did not complete.
var ErrTranscriptionFailed = errors.New("transcription failed")

// ErrInvalidOutput indicates the model produced output that could not be parsed.
var ErrInvalidOutput = errors.New("invalid transcription output")

// ErrAudioNotFound indicates the audio file to transcribe does not exist.
var ErrAudioNotFound = errors.New("audio file not found")

// ErrAPIKeyMissing indicates OPENAI_API_KEY is required but not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")
