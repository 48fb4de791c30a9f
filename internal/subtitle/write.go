package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write saves doc to path as UTF-8, replacing any existing file. The content
// goes to a temporary file in the same directory first, so readers never see
// a partial document.
func Write(path string, doc Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".subtitles-*.srt")
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := func() error {
		defer func() { _ = tmp.Close() }()
		if _, err := doc.WriteTo(tmp); err != nil {
			return fmt.Errorf("write subtitles: %w", err)
		}
		return tmp.Sync()
	}()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}

	// #nosec G302 -- subtitles are meant to be readable
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write subtitles: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}
