package audio

import "errors"

// ErrExtractionFailed indicates neither extraction strategy produced audio.
var ErrExtractionFailed = errors.New("audio extraction failed")

// ErrNoAudioTrack indicates the input is a readable container without any
// audio stream.
var ErrNoAudioTrack = errors.New("video has no audio track")

// ErrUnreadableInput indicates the input video is missing or not a regular file.
var ErrUnreadableInput = errors.New("input video unreadable")

// ErrDecode indicates the intermediate WAV could not be decoded.
var ErrDecode = errors.New("cannot decode audio")
