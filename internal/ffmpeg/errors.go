package ffmpeg

import "errors"

// ErrNotFound indicates no usable ffmpeg binary could be resolved.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrFailed indicates ffmpeg ran and exited with a non-zero status.
var ErrFailed = errors.New("ffmpeg failed")
