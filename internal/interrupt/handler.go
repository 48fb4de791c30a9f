// Package interrupt turns SIGINT/SIGTERM into a two-step shutdown: the first
// signal cancels a context so running work can stop cleanly, the second exits
// the process at once.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitInterrupt is the process exit code after a forced quit.
const ExitInterrupt = 130

const (
	stoppingMessage = "\nStopping... press Ctrl+C again to force quit."
	abortMessage    = "Aborted."
)

// Handler listens for interrupts until Stop is called.
type Handler struct {
	mu          sync.Mutex
	interrupted bool
	stopped     bool
	cancelFunc  context.CancelFunc
	done        chan struct{}

	exitFunc func(int)
	stderr   io.Writer
}

// Options injects the signal source and side effects for testing.
type Options struct {
	// SigCh delivers signals. No listener is started when nil.
	SigCh <-chan os.Signal
	// ExitFunc is called on the second signal. Defaults to os.Exit.
	ExitFunc func(int)
	// Stderr receives the shutdown messages. Defaults to os.Stderr.
	Stderr io.Writer
}

// NewHandler listens for SIGINT and SIGTERM. The returned context is
// canceled on the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return newHandler(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions is NewHandler with injected dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancelFunc: cancel,
		done:       make(chan struct{}),
		exitFunc:   opts.ExitFunc,
		stderr:     opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			if !h.interrupted {
				h.interrupted = true
				h.cancelFunc()
				h.mu.Unlock()
				_, _ = fmt.Fprintln(h.stderr, stoppingMessage)
				continue
			}
			h.mu.Unlock()

			_, _ = fmt.Fprintln(h.stderr, abortMessage)
			h.exitFunc(ExitInterrupt)
			return
		}
	}
}

// WasInterrupted reports whether at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Stop releases the signal handlers and cancels the context. Safe to call
// more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancelFunc()
}
