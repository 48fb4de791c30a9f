// Package subtitle renders transcription segments as SubRip (.srt) documents.
package subtitle

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/alnah/vidsub/internal/format"
	"github.com/alnah/vidsub/internal/transcribe"
)

// Cue is one numbered subtitle block. Index is 1-based.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Document is an ordered list of cues.
type Document struct {
	Cues []Cue
}

// Len returns the number of cues.
func (d Document) Len() int {
	return len(d.Cues)
}

// FromResult builds one cue per segment, in segment order, numbered from 1.
// Segment times are copied unchanged; only their validity is checked.
func FromResult(r transcribe.Result) (Document, error) {
	cues := make([]Cue, 0, len(r.Segments))
	for i, seg := range r.Segments {
		if err := checkSegment(seg); err != nil {
			return Document{}, fmt.Errorf("segment %d: %w", i+1, err)
		}
		cues = append(cues, Cue{
			Index: i + 1,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return Document{Cues: cues}, nil
}

func checkSegment(seg transcribe.Segment) error {
	for _, v := range []float64{seg.Start, seg.End} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite time %v", ErrMalformedSegment, v)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative time %v", ErrMalformedSegment, v)
		}
	}
	if seg.End < seg.Start {
		return fmt.Errorf("%w: end %v before start %v", ErrMalformedSegment, seg.End, seg.Start)
	}
	return nil
}

// String renders the document as SubRip text. A document without cues
// renders as the empty string.
func (d Document) String() string {
	var b strings.Builder
	for _, c := range d.Cues {
		b.WriteString(strconv.Itoa(c.Index))
		b.WriteByte('\n')
		b.WriteString(format.Timestamp(c.Start))
		b.WriteString(" --> ")
		b.WriteString(format.Timestamp(c.End))
		b.WriteByte('\n')
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteTo writes the SubRip rendering to w.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}
