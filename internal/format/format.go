package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp formats a position in seconds as a SubRip clock value HH:MM:SS,mmm.
// Milliseconds are truncated, never rounded, so 59.9999 stays "00:00:59,999".
// Hours are not wrapped at 24.
//
// Truncation works on the shortest decimal form of the value, so binary float
// noise (3661.234 is stored as 3661.2339999...) never loses a millisecond and
// values just below a boundary never carry into the next second.
// Negative and non-finite values format as zero.
func Timestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "00:00:00,000"
	}

	whole, frac, _ := strings.Cut(strconv.FormatFloat(seconds, 'f', -1, 64), ".")
	totalSeconds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return "00:00:00,000"
	}
	millis := (frac + "000")[:3]

	minutes, secs := totalSeconds/60, totalSeconds%60
	hours, minutes := minutes/60, minutes%60

	return fmt.Sprintf("%02d:%02d:%02d,%s", hours, minutes, secs, millis)
}

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%d MB", bytes/mb)
	case bytes >= kb:
		return fmt.Sprintf("%d KB", bytes/kb)
	case bytes == 1:
		return "1 byte"
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
