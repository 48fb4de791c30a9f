package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Fixed artifact names inside a request directory.
const (
	AudioName    = "audio.wav"
	SubtitleName = "subtitles.srt"
)

// Extensions lists accepted video containers, lowercase without the dot.
var Extensions = []string{"mp4", "mkv", "avi", "mov"}

// ValidateFilename returns ErrUnsupportedFormat unless name ends in an
// accepted extension (case-insensitive).
func ValidateFilename(name string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !slices.Contains(Extensions, ext) {
		return fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedFormat, name, strings.Join(Extensions, ", "))
	}
	return nil
}

// Request holds the paths of one pipeline run.
type Request struct {
	ID  string
	Dir string
}

// VideoPath returns where the upload named filename is stored. Only the base
// name is kept.
func (r Request) VideoPath(filename string) string {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		base = "video"
	}
	return filepath.Join(r.Dir, base)
}

// AudioPath returns the extracted audio location.
func (r Request) AudioPath() string { return filepath.Join(r.Dir, AudioName) }

// SubtitlePath returns the generated subtitle location.
func (r Request) SubtitlePath() string { return filepath.Join(r.Dir, SubtitleName) }

// Workspace is the scratch directory. Each request gets its own
// subdirectory named by a random UUID.
type Workspace struct {
	root string
	lock *flock.Flock
}

// NewWorkspace creates root if absent.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		return nil, errors.New("scratch directory cannot be empty")
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0750); err != nil { // #nosec G301 -- user scratch dir
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &Workspace{root: root, lock: flock.New(root + ".lock")}, nil
}

// Root returns the scratch directory path.
func (w *Workspace) Root() string { return w.root }

// LockPath returns the lock file path, a sibling of the scratch directory.
func (w *Workspace) LockPath() string { return w.lock.Path() }

// Lock takes the scratch directory for this process.
// Returns ErrWorkspaceLocked if another process holds it.
func (w *Workspace) Lock() error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkspaceLocked, w.lock.Path())
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (w *Workspace) Unlock() error {
	return w.lock.Unlock()
}

// NewRequest creates a fresh request directory.
func (w *Workspace) NewRequest() (Request, error) {
	// Clear may have removed root.
	if err := os.MkdirAll(w.root, 0750); err != nil { // #nosec G301 -- user scratch dir
		return Request{}, fmt.Errorf("create scratch directory: %w", err)
	}
	id := uuid.NewString()
	dir := filepath.Join(w.root, id)
	if err := os.Mkdir(dir, 0750); err != nil { // #nosec G301 -- request dir
		return Request{}, fmt.Errorf("create request directory: %w", err)
	}
	return Request{ID: id, Dir: dir}, nil
}

// Lookup returns the request with the given ID. Returns ErrUnknownRequest if
// the ID is malformed or its directory is gone.
func (w *Workspace) Lookup(id string) (Request, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownRequest, id)
	}
	dir := filepath.Join(w.root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownRequest, id)
	}
	return Request{ID: id, Dir: dir}, nil
}

// Subtitles returns the subtitle file of request id.
// Returns ErrUnknownRequest if it does not exist.
func (w *Workspace) Subtitles(id string) (string, error) {
	req, err := w.Lookup(id)
	if err != nil {
		return "", err
	}
	p := req.SubtitlePath()
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q has no subtitles", ErrUnknownRequest, id)
		}
		return "", err
	}
	return p, nil
}

// Clear removes every entry of the scratch directory, which remains (or is
// recreated) empty. It returns the number of top-level entries removed.
func (w *Workspace) Clear() (int, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("read scratch directory: %w", err)
	}

	var errs []error
	removed := 0
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(w.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if err := os.MkdirAll(w.root, 0750); err != nil { // #nosec G301 -- user scratch dir
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("clear scratch directory: %w", errors.Join(errs...))
	}
	return removed, nil
}
