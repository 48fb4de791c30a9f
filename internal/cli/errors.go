package cli

import (
	"errors"

	"github.com/alnah/vidsub/internal/session"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrUnsupportedFormat indicates a video file has an unsupported extension.
	ErrUnsupportedFormat = session.ErrUnsupportedFormat

	// ErrUnsupportedBackend indicates an unknown transcriber backend.
	ErrUnsupportedBackend = errors.New("unsupported transcriber backend")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")
)
