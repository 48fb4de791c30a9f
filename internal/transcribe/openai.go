package transcribe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/vidsub/internal/apierr"
)

// audioTranscriber is the subset of *openai.Client used here.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes through OpenAI's hosted Whisper endpoint.
// Transient failures (rate limits, timeouts, 5xx) are retried with backoff.
type OpenAITranscriber struct {
	client audioTranscriber
	retry  apierr.RetryConfig
}

// OpenAIOption configures an OpenAITranscriber.
type OpenAIOption func(*OpenAITranscriber)

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg apierr.RetryConfig) OpenAIOption {
	return func(t *OpenAITranscriber) { t.retry = cfg }
}

// NewOpenAITranscriber creates an OpenAITranscriber for the given API key.
func NewOpenAITranscriber(apiKey string, opts ...OpenAIOption) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	return newOpenAITranscriber(openai.NewClient(apiKey), opts...), nil
}

func newOpenAITranscriber(client audioTranscriber, opts ...OpenAIOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		retry:  apierr.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe uploads the audio and requests verbose JSON so segment timings
// come back with the text. Local size names ("base", "small", ...) map to the
// single hosted model.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	if err := checkAudio(audioPath); err != nil {
		return Result{}, err
	}

	model := opts.Model
	if model == "" || slices.Contains(models, model) {
		model = openai.Whisper1
	}

	req := openai.AudioRequest{
		Model:    model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Prompt:   opts.Prompt,
		Language: opts.Language.BaseCode(),
	}

	resp, err := apierr.RetryWithBackoff(ctx, t.retry, func() (openai.AudioResponse, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, classifyError(err)
		}
		return resp, nil
	}, apierr.IsRetryable)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}

	segments := make([]Segment, len(resp.Segments))
	for i, s := range resp.Segments {
		segments[i] = Segment{Start: s.Start, End: s.End, Text: s.Text}
	}

	return Result{
		Text:     strings.TrimSpace(resp.Text),
		Segments: trimSegments(segments),
		Language: resp.Language,
	}, nil
}

// classifyError maps go-openai errors onto apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	return err
}
