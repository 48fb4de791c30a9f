package subtitle

import "errors"

// ErrMalformedSegment indicates a segment with a negative, non-finite or
// inverted time range.
var ErrMalformedSegment = errors.New("malformed segment")

// ErrInvalidSRT indicates input that is not a SubRip document.
var ErrInvalidSRT = errors.New("invalid SubRip document")
