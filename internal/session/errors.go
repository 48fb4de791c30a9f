package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for workspace and upload handling.
var (
	// ErrUnsupportedFormat indicates the upload extension is not an accepted video container.
	ErrUnsupportedFormat = errors.New("unsupported video format")

	// ErrWorkspaceLocked indicates another process holds the scratch directory.
	ErrWorkspaceLocked = errors.New("scratch directory is in use by another process")

	// ErrUnknownRequest indicates a request ID with no artifacts on disk.
	ErrUnknownRequest = errors.New("unknown request")
)

// Kind classifies why a pipeline run failed.
type Kind int

// Failure kinds, one per stage that can abort a request.
const (
	KindIO Kind = iota + 1
	KindValidation
	KindExtraction
	KindTranscription
	KindFormatting
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindValidation:
		return "validation"
	case KindExtraction:
		return "extraction"
	case KindTranscription:
		return "transcription"
	case KindFormatting:
		return "formatting"
	default:
		return "unknown"
	}
}

// Failure is the error returned by Controller.Process. It records the stage
// that aborted the request and the underlying cause.
type Failure struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the failure kind carried by err, or 0 if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
