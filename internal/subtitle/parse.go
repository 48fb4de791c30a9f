package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var clockPattern = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,.](\d{3})$`)

// Parse reads a SubRip document. Millisecond separators may be ',' or '.',
// line endings may be CRLF, and a UTF-8 BOM is ignored. Text after the end
// timestamp (position hints) is dropped.
func Parse(r io.Reader) (Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		doc    Document
		lineNo int
	)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		return line, true
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return Document{}, fmt.Errorf("%w: line %d: expected cue number, got %q", ErrInvalidSRT, lineNo, line)
		}

		timing, ok := next()
		if !ok {
			return Document{}, fmt.Errorf("%w: cue %d: missing timing line", ErrInvalidSRT, index)
		}
		start, end, err := parseTiming(timing)
		if err != nil {
			return Document{}, fmt.Errorf("%w: line %d: %v", ErrInvalidSRT, lineNo, err)
		}

		var text []string
		for {
			l, ok := next()
			if !ok || l == "" {
				break
			}
			text = append(text, l)
		}

		doc.Cues = append(doc.Cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}

	if err := sc.Err(); err != nil {
		return Document{}, fmt.Errorf("read subtitles: %w", err)
	}
	return doc, nil
}

func parseTiming(line string) (start, end float64, err error) {
	left, right, found := strings.Cut(line, "-->")
	if !found {
		return 0, 0, fmt.Errorf("expected 'start --> end', got %q", line)
	}
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing end time in %q", line)
	}

	if start, err = parseClock(strings.TrimSpace(left)); err != nil {
		return 0, 0, err
	}
	if end, err = parseClock(fields[0]); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseClock converts HH:MM:SS,mmm to seconds.
func parseClock(s string) (float64, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4])
	if mins > 59 || secs > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	totalMillis := int64(h)*3_600_000 + int64(mins)*60_000 + int64(secs)*1000 + int64(millis)
	return float64(totalMillis) / 1000, nil
}
