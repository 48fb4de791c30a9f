// Package session runs one uploaded video through extraction, transcription
// and subtitle formatting inside a request-scoped scratch directory.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/alnah/vidsub/internal/audio"
	"github.com/alnah/vidsub/internal/format"
	"github.com/alnah/vidsub/internal/logging"
	"github.com/alnah/vidsub/internal/metrics"
	"github.com/alnah/vidsub/internal/subtitle"
	"github.com/alnah/vidsub/internal/transcribe"
)

// User-facing progress messages.
const (
	msgProcessing   = "Processing the uploaded video..."
	msgWaiting      = "Waiting for another video to finish..."
	msgUploaded     = "Video uploaded successfully!"
	msgExtracting   = "Extracting audio from the video..."
	msgFallback     = "FFmpeg extraction failed, trying the fallback decoder..."
	msgExtracted    = "Audio extracted successfully!"
	msgNoAudio      = "The video has no audio track, the subtitles will be empty."
	msgTranscribing = "Transcribing audio..."
	msgTranscribed  = "Transcription completed!"
	msgFormatting   = "Generating subtitles..."
	msgFormatted    = "Subtitles generated!"
	msgCleared      = "Temporary files cleared!"
)

// Upload is one video submitted by the user.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Outcome describes a pipeline run. It is returned even when the run fails,
// so callers can show the events that led to the failure.
type Outcome struct {
	RequestID    string
	State        State
	VideoPath    string
	AudioPath    string
	SubtitlePath string
	Extraction   audio.Extraction
	// NoAudio is set when the video has no audio track. Result and Document
	// are then empty and the subtitle file has zero cues.
	NoAudio  bool
	Result   transcribe.Result
	Document subtitle.Document
	Events   []Event
}

// Controller orchestrates the pipeline. It is safe for concurrent use; at
// most maxConcurrent runs proceed at once, the rest wait for a slot.
type Controller struct {
	ws          *Workspace
	extractor   extractor
	transcriber transcribe.Transcriber
	opts        transcribe.Options

	maxConcurrent int
	sem           *semaphore.Weighted

	reporter Reporter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxConcurrent bounds the number of pipelines running at once.
// Values below 1 are ignored.
func WithMaxConcurrent(n int) Option {
	return func(c *Controller) {
		if n >= 1 {
			c.maxConcurrent = n
		}
	}
}

// WithTranscribeOptions sets the model options used for every request.
func WithTranscribeOptions(o transcribe.Options) Option {
	return func(c *Controller) { c.opts = o }
}

// WithReporter sets the reporter that receives events from every request,
// in addition to the per-request Outcome.Events.
func WithReporter(r Reporter) Option {
	return func(c *Controller) { c.reporter = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// withClock sets the time source (for testing).
func withClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a Controller over ws.
func NewController(ws *Workspace, ex extractor, tr transcribe.Transcriber, opts ...Option) *Controller {
	c := &Controller{
		ws:            ws,
		extractor:     ex,
		transcriber:   tr,
		maxConcurrent: 1,
		reporter:      ReporterFunc(func(Event) {}),
		logger:        logging.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sem = semaphore.NewWeighted(int64(c.maxConcurrent))
	c.logger = logging.Component(c.logger, "session")
	return c
}

// Workspace returns the scratch workspace.
func (c *Controller) Workspace() *Workspace { return c.ws }

// Process runs the whole pipeline for one upload:
//
//	Idle -> VideoReceived -> AudioExtracted -> Transcribed -> SubtitlesGenerated
//
// Any stage may end the run in Failed. On failure the returned error is a
// *Failure and exactly one error event has been emitted. A video without an
// audio track is not a failure: it yields an empty subtitle file and a
// warning event.
func (c *Controller) Process(ctx context.Context, up Upload) (*Outcome, error) {
	r := &run{c: c, out: &Outcome{State: StateIdle}}

	if err := ValidateFilename(up.Filename); err != nil {
		return r.fail(StageUpload, KindValidation, err, "Unsupported file type, upload an mp4, mkv, avi or mov video.")
	}

	if !c.sem.TryAcquire(1) {
		r.emit(StageUpload, LevelInfo, msgWaiting)
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return r.fail(StageUpload, KindIO, err, "Processing canceled before it started.")
		}
	}
	defer c.sem.Release(1)
	c.metrics.PipelineStarted()
	defer c.metrics.PipelineFinished()

	req, err := c.ws.NewRequest()
	if err != nil {
		return r.fail(StageUpload, KindIO, err, fmt.Sprintf("Error preparing scratch files: %v", err))
	}
	r.out.RequestID = req.ID
	r.emit(StageUpload, LevelInfo, msgProcessing)

	if err := r.receive(req, up); err != nil {
		return r.fail(StageUpload, KindIO, err, fmt.Sprintf("Error saving the uploaded video: %v", err))
	}

	result, err := r.extract(ctx, req)
	if err != nil {
		return r.fail(StageExtract, KindExtraction, err, fmt.Sprintf("Error extracting audio: %v", err))
	}

	if !r.out.NoAudio {
		result, err = r.transcribe(ctx)
		if err != nil {
			return r.fail(StageTranscribe, KindTranscription, err, fmt.Sprintf("Error in transcription: %v", err))
		}
	}
	r.out.Result = result
	r.out.State = StateTranscribed

	kind, err := r.format(req, result)
	if err != nil {
		return r.fail(StageFormat, kind, err, fmt.Sprintf("Error generating subtitles: %v", err))
	}

	if r.out.NoAudio || result.IsEmpty() {
		c.metrics.RequestDone(metrics.OutcomeEmpty)
	} else {
		c.metrics.RequestDone(metrics.OutcomeSuccess)
	}
	r.out.Events = r.events.Events()
	c.logger.Info("request done",
		slog.String(logging.FieldRequestID, r.out.RequestID),
		slog.Int("cues", len(result.Segments)),
		slog.Int("warnings", r.events.Count(LevelWarning)),
	)
	return r.out, nil
}

// Clear empties the scratch directory. It does not wait for running
// pipelines; their in-memory results are unaffected.
func (c *Controller) Clear() (int, error) {
	n, err := c.ws.Clear()
	if err != nil {
		c.reporter.Report(Event{Stage: StageClear, Level: LevelError, Message: fmt.Sprintf("Error clearing temporary files: %v", err), Time: c.now()})
		return n, err
	}
	c.metrics.ScratchCleared()
	c.reporter.Report(Event{Stage: StageClear, Level: LevelSuccess, Message: msgCleared, Time: c.now()})
	c.logger.Info("scratch cleared", slog.Int("entries", n), slog.String("dir", c.ws.Root()))
	return n, nil
}

// run carries the state of one Process call.
type run struct {
	c      *Controller
	out    *Outcome
	events Collector
}

func (r *run) emit(stage Stage, level Level, msg string) {
	e := Event{RequestID: r.out.RequestID, Stage: stage, Level: level, Message: msg, Time: r.c.now()}
	r.events.Report(e)
	r.c.reporter.Report(e)
}

func (r *run) fail(stage Stage, kind Kind, err error, msg string) (*Outcome, error) {
	r.out.State = StateFailed
	r.emit(stage, LevelError, msg)
	r.out.Events = r.events.Events()
	r.c.metrics.RequestDone(metrics.OutcomeFailure)
	r.c.logger.Error("request failed",
		slog.String(logging.FieldRequestID, r.out.RequestID),
		slog.String(logging.FieldStage, string(stage)),
		slog.String("kind", kind.String()),
		slog.Any("error", err),
	)
	return r.out, &Failure{Kind: kind, Stage: stage, Err: err}
}

// timed records the duration of a stage since start.
func (r *run) timed(stage Stage, start time.Time) {
	elapsed := r.c.now().Sub(start)
	r.c.metrics.ObserveStage(string(stage), elapsed)
	r.c.logger.Debug("stage done",
		slog.String(logging.FieldRequestID, r.out.RequestID),
		slog.String(logging.FieldStage, string(stage)),
		slog.Duration(logging.FieldElapsed, elapsed),
	)
}

// receive streams the upload to the request directory.
func (r *run) receive(req Request, up Upload) error {
	defer r.timed(StageUpload, r.c.now())

	if up.Body == nil {
		return errors.New("upload has no content")
	}
	path := req.VideoPath(up.Filename)
	// #nosec G304 -- path is inside the request directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, up.Body)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	r.c.logger.Info("video received",
		slog.String(logging.FieldRequestID, r.out.RequestID),
		slog.String("filename", up.Filename),
		slog.String("size", format.Size(n)),
	)

	r.out.VideoPath = path
	r.out.State = StateVideoReceived
	r.emit(StageUpload, LevelSuccess, msgUploaded)
	return nil
}

// extract runs the extractor. A missing audio track sets NoAudio and is not
// an error.
func (r *run) extract(ctx context.Context, req Request) (transcribe.Result, error) {
	defer r.timed(StageExtract, r.c.now())
	r.emit(StageExtract, LevelInfo, msgExtracting)

	ext, err := r.c.extractor.Extract(ctx, r.out.VideoPath, req.AudioPath())
	r.out.Extraction = ext
	if len(ext.Warnings) > 0 {
		r.c.metrics.ExtractionFallback()
		r.emit(StageExtract, LevelWarning, msgFallback)
		for _, w := range ext.Warnings {
			r.c.logger.Warn(w, slog.String(logging.FieldRequestID, r.out.RequestID))
		}
	}

	switch {
	case err == nil:
		r.out.AudioPath = req.AudioPath()
		r.out.State = StateAudioExtracted
		r.emit(StageExtract, LevelSuccess, msgExtracted)
		return transcribe.Result{}, nil
	case errors.Is(err, audio.ErrNoAudioTrack):
		r.out.NoAudio = true
		r.out.State = StateAudioExtracted
		r.emit(StageExtract, LevelWarning, msgNoAudio)
		return transcribe.Result{Segments: []transcribe.Segment{}}, nil
	default:
		return transcribe.Result{}, err
	}
}

func (r *run) transcribe(ctx context.Context) (transcribe.Result, error) {
	defer r.timed(StageTranscribe, r.c.now())
	r.emit(StageTranscribe, LevelInfo, msgTranscribing)

	res, err := r.c.transcriber.Transcribe(ctx, r.out.AudioPath, r.c.opts)
	if err != nil {
		return transcribe.Result{}, err
	}
	r.emit(StageTranscribe, LevelSuccess, msgTranscribed)
	return res, nil
}

// format builds and writes the subtitle document. The returned kind tells a
// malformed result apart from a write error.
func (r *run) format(req Request, res transcribe.Result) (Kind, error) {
	defer r.timed(StageFormat, r.c.now())
	r.emit(StageFormat, LevelInfo, msgFormatting)

	doc, err := subtitle.FromResult(res)
	if err != nil {
		return KindFormatting, err
	}
	if err := subtitle.Write(req.SubtitlePath(), doc); err != nil {
		return KindIO, err
	}

	r.out.Document = doc
	r.out.SubtitlePath = req.SubtitlePath()
	r.out.State = StateSubtitlesGenerated
	r.emit(StageFormat, LevelSuccess, msgFormatted)
	return 0, nil
}
