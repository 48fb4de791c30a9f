package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/vidsub/internal/lang"
	"github.com/alnah/vidsub/internal/logging"
	"github.com/alnah/vidsub/internal/metrics"
	"github.com/alnah/vidsub/internal/session"
	"github.com/alnah/vidsub/internal/transcribe"
	"github.com/alnah/vidsub/internal/web"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// first interrupt.
const shutdownTimeout = 30 * time.Second

// serveFlags holds the serve command line.
type serveFlags struct {
	listen        string
	maxConcurrent int
	logLevel      string
	logFormat     string
}

// ServeCmd creates the serve command.
func ServeCmd(env *Env) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Serve the upload page on the configured address.

Upload a video, follow progress live, read the transcript and download the
subtitles. Prometheus metrics are exposed on /metrics.

Only one server may use a scratch directory at a time.`,
		Example: `  vidsub serve
  vidsub serve --listen :8080 --max-concurrent 2
  vidsub serve --log-format json --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env, f)
		},
	}

	cmd.Flags().StringVar(&f.listen, "listen", "", "Listen address (default from config: 127.0.0.1:8501)")
	cmd.Flags().IntVar(&f.maxConcurrent, "max-concurrent", 0, "Videos processed at once (default from config: 1)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: console, json")

	return cmd
}

func runServe(ctx context.Context, env *Env, f serveFlags) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	overrides := []struct{ key, value string }{
		{"listen", f.listen},
		{"log_level", f.logLevel},
		{"log_format", f.logFormat},
	}
	if f.maxConcurrent != 0 {
		overrides = append(overrides, struct{ key, value string }{"max_concurrent", fmt.Sprint(f.maxConcurrent)})
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := cfg.Set(o.key, o.value); err != nil {
			return err
		}
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: env.Stderr})
	if err != nil {
		return err
	}

	language, err := lang.Parse(cfg.Transcriber.Language)
	if err != nil {
		return err
	}
	transcriber, err := env.TranscriberFactory.NewTranscriber(cfg.Transcriber, env.Getenv(EnvOpenAIAPIKey))
	if err != nil {
		return err
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(cfg.FFmpegPath)
	if err != nil {
		return err
	}
	version := env.FFmpegResolver.CheckVersion(ctx, ffmpegPath, env.Stderr)
	logger.Info("ffmpeg ready", slog.String("path", ffmpegPath), slog.String("version", version))

	extractor, err := env.ExtractorFactory.NewExtractor(ffmpegPath)
	if err != nil {
		return err
	}

	ws, err := session.NewWorkspace(cfg.ScratchDir)
	if err != nil {
		return err
	}
	if err := ws.Lock(); err != nil {
		return err
	}
	defer func() { _ = ws.Unlock() }()

	m := metrics.New()
	hub := web.NewHub(logger)
	ctrl := session.NewController(ws, extractor, transcriber,
		session.WithMaxConcurrent(cfg.MaxConcurrent),
		session.WithTranscribeOptions(transcribe.Options{
			Model:    cfg.Transcriber.Model,
			Language: language,
			Prompt:   cfg.Transcriber.Prompt,
		}),
		session.WithReporter(session.Multi(hub, session.LogReporter(logger))),
		session.WithLogger(logger),
		session.WithMetrics(m),
	)

	srv, err := web.NewServer(ctrl,
		web.WithHub(hub),
		web.WithMetrics(m),
		web.WithLogger(logger),
		web.WithModelInfo(cfg.Transcriber.Backend, cfg.Transcriber.Model),
	)
	if err != nil {
		return err
	}

	ln, err := env.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serving",
		slog.String("url", "http://"+ln.Addr().String()),
		slog.String("scratch_dir", ws.Root()),
		slog.String("backend", cfg.Transcriber.Backend),
		slog.String("model", cfg.Transcriber.Model),
		slog.Int("max_concurrent", cfg.MaxConcurrent),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
