package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestOpenAITranscriber creates an OpenAITranscriber around a mock client.
func NewTestOpenAITranscriber(client audioTranscriber, opts ...OpenAIOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

// Function exports for unit testing internal logic.
var (
	ClassifyError = classifyError
)
