// Package web serves the upload form, the subtitle download and the live
// progress feed.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"github.com/alnah/vidsub/internal/lang"
	"github.com/alnah/vidsub/internal/logging"
	"github.com/alnah/vidsub/internal/metrics"
	"github.com/alnah/vidsub/internal/session"
)

// Download contract.
const (
	SubtitleMIME     = "text/srt"
	SubtitleFilename = "subtitles.srt"
)

// videoField is the multipart field carrying the upload.
const videoField = "video"

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP front end of a session.Controller.
type Server struct {
	ctrl    *session.Controller
	hub     *Hub
	metrics *metrics.Metrics
	logger  *slog.Logger
	page    *template.Template
	backend string
	model   string
}

// Option configures a Server.
type Option func(*Server)

// WithHub sets the websocket hub served on /events. The hub should also be
// the controller's reporter.
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithMetrics exposes m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithModelInfo sets the backend and model names shown on the page.
func WithModelInfo(backend, model string) Option {
	return func(s *Server) { s.backend, s.model = backend, model }
}

// NewServer parses the embedded templates and returns a Server.
func NewServer(ctrl *session.Controller, opts ...Option) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ctrl:    ctrl,
		logger:  logging.NewNop(),
		page:    page,
		backend: "whisper",
		model:   "base",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	s.logger = logging.Component(s.logger, "web")
	return s, nil
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	r.HandleFunc("/download/{id}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/clear", s.handleClear).Methods(http.MethodPost)
	r.Handle("/events", s.hub).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

// pageData feeds templates/page.html.
type pageData struct {
	Backend    string
	Model      string
	Accept     string
	Events     []session.Event
	Outcome    *session.Outcome
	Transcript string
	Language   string
}

func (s *Server) newPage() pageData {
	accept := make([]string, len(session.Extensions))
	for i, ext := range session.Extensions {
		accept[i] = "." + ext
	}
	return pageData{Backend: s.backend, Model: s.model, Accept: strings.Join(accept, ",")}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, s.newPage())
}

// outcomeJSON is the JSON form of a transcription response.
type outcomeJSON struct {
	RequestID   string          `json:"request_id,omitempty"`
	State       string          `json:"state"`
	Transcript  string          `json:"transcript"`
	Language    string          `json:"language,omitempty"`
	Cues        int             `json:"cues"`
	DownloadURL string          `json:"download_url,omitempty"`
	Events      []session.Event `json:"events"`
	Error       string          `json:"error,omitempty"`
}

// handleTranscribe streams the "video" part of a multipart body straight to
// the request directory and runs the pipeline.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	filename, body, err := videoPart(r)
	if err != nil {
		s.logger.Warn("bad upload", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = body.Close() }()

	out, err := s.ctrl.Process(r.Context(), session.Upload{Filename: filename, Body: body})
	status := statusFor(err)

	if wantsJSON(r) {
		resp := outcomeJSON{
			RequestID:  out.RequestID,
			State:      out.State.String(),
			Transcript: strings.TrimSpace(out.Result.Text),
			Language:   out.Result.Language,
			Cues:       out.Document.Len(),
			Events:     out.Events,
		}
		if out.SubtitlePath != "" {
			resp.DownloadURL = "/download/" + out.RequestID
		}
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSON(w, status, resp)
		return
	}

	page := s.newPage()
	page.Events = out.Events
	page.Outcome = out
	page.Transcript = strings.TrimSpace(out.Result.Text)
	if out.Result.Language != "" {
		page.Language = lang.Describe(out.Result.Language)
	}
	s.render(w, status, page)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := s.ctrl.Workspace().Subtitles(id)
	if err != nil {
		if errors.Is(err, session.ErrUnknownRequest) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("download failed", slog.String(logging.FieldRequestID, id), slog.Any("error", err))
		http.Error(w, "cannot read subtitles", http.StatusInternalServerError)
		return
	}

	// #nosec G304 -- path comes from the workspace lookup
	f, err := os.Open(p)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "cannot read subtitles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", SubtitleMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="`+SubtitleFilename+`"`)
	http.ServeContent(w, r, SubtitleFilename, info.ModTime(), f)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	_, err := s.ctrl.Clear()

	ev := session.Event{Stage: session.StageClear, Level: session.LevelSuccess, Message: "Temporary files cleared!"}
	status := http.StatusOK
	if err != nil {
		ev.Level, ev.Message = session.LevelError, "Error clearing temporary files: "+err.Error()
		status = http.StatusInternalServerError
	}

	if wantsJSON(r) {
		writeJSON(w, status, map[string]any{"events": []session.Event{ev}})
		return
	}
	page := s.newPage()
	page.Events = []session.Event{ev}
	s.render(w, status, page)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page", slog.Any("error", err))
	}
}

// statusFor maps a pipeline error to an HTTP status. Failures are reported in
// the page body; the status only tells clients whether to retry.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, session.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case session.KindOf(err) == session.KindExtraction,
		session.KindOf(err) == session.KindTranscription,
		session.KindOf(err) == session.KindFormatting:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
