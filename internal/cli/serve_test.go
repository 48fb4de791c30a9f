package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alnah/vidsub/internal/config"
	"github.com/alnah/vidsub/internal/session"
)

// Notes:
// - runServe listens on 127.0.0.1:0 through Env.Listen; the test reads the
//   bound address from the injected listener
// - The pipeline behind the server uses the mocked extractor and transcriber
//
// Coverage gaps (intentional):
// - Signal handling - covered by the interrupt package

// startServe runs runServe in the background and returns its address, a
// cancel func and the result channel.
func startServe(t *testing.T, env *Env, flags ServeFlags) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	addrCh := make(chan string, 1)
	env.Listen = func(string, string) (net.Listener, error) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err == nil {
			addrCh <- ln.Addr().String()
		}
		return ln, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, env, flags) }()

	select {
	case addr := <-addrCh:
		return addr, cancel, done
	case err := <-done:
		cancel()
		t.Fatalf("RunServe() returned before listening: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("RunServe() did not listen in time")
	}
	return "", cancel, done
}

func waitServe(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunServe() unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("RunServe() did not stop after cancel")
	}
}

func TestRunServe_EndToEnd(t *testing.T) {
	t.Parallel()

	env, mocks, _, stderr := testEnv(t)
	addr, cancel, done := startServe(t, env, ServeFlags{maxConcurrent: 2})
	base := "http://" + addr

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz status = %d", resp.StatusCode)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", "talk.mp4")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("fake video"))
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, base+"/transcribe", &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /transcribe: %v", err)
	}
	var result struct {
		Transcript  string `json:"transcript"`
		Cues        int    `json:"cues"`
		DownloadURL string `json:"download_url"`
	}
	err = json.NewDecoder(resp.Body).Decode(&result)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /transcribe status = %d", resp.StatusCode)
	}
	if result.Transcript != "Hello world. Second line." || result.Cues != 2 {
		t.Errorf("result = %+v", result)
	}

	resp, err = http.Get(base + result.DownloadURL)
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	srt, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(srt), "00:00:01,500 --> 00:00:03,250\nSecond line.") {
		t.Errorf("download body = %q", srt)
	}

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	metricsBody, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(metricsBody), `vidsub_requests_total{outcome="success"} 1`) {
		t.Errorf("metrics missing request count:\n%s", metricsBody)
	}

	cancel()
	waitServe(t, done)

	if got := mocks.ffmpegResolver.ResolveCalls(); len(got) != 1 {
		t.Errorf("Resolve calls = %v, want 1", got)
	}
	if !strings.Contains(stderr.String(), "serving") {
		t.Errorf("log missing startup line:\n%s", stderr.String())
	}

	// The scratch lock is released on shutdown.
	cfg, _ := mocks.configLoader.Load()
	ws, err := session.NewWorkspace(cfg.ScratchDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Lock(); err != nil {
		t.Errorf("Lock() after shutdown: %v", err)
	}
	_ = ws.Unlock()
}

func TestRunServe_WorkspaceLocked(t *testing.T) {
	t.Parallel()

	env, mocks, _, _ := testEnv(t)
	cfg, _ := mocks.configLoader.Load()
	holder, err := session.NewWorkspace(cfg.ScratchDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := holder.Lock(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = holder.Unlock() }()

	listened := false
	env.Listen = func(string, string) (net.Listener, error) {
		listened = true
		return nil, errors.New("unexpected listen")
	}

	err = RunServe(context.Background(), env, ServeFlags{})
	if !errors.Is(err, session.ErrWorkspaceLocked) {
		t.Fatalf("RunServe() error = %v, want ErrWorkspaceLocked", err)
	}
	if listened {
		t.Error("RunServe() listened although the workspace is locked")
	}
}

func TestRunServe_InvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags ServeFlags
	}{
		{"log level", ServeFlags{logLevel: "loud"}},
		{"log format", ServeFlags{logFormat: "xml"}},
		{"concurrency", ServeFlags{maxConcurrent: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, mocks, _, _ := testEnv(t)

			err := RunServe(context.Background(), env, tt.flags)
			if !errors.Is(err, config.ErrInvalidValue) {
				t.Fatalf("RunServe() error = %v, want ErrInvalidValue", err)
			}
			if got := len(mocks.ffmpegResolver.ResolveCalls()); got != 0 {
				t.Errorf("ffmpeg resolved %d times, want 0", got)
			}
		})
	}
}

func TestRunServe_ListenFails(t *testing.T) {
	t.Parallel()

	env, _, _, _ := testEnv(t)
	env.Listen = func(string, string) (net.Listener, error) {
		return nil, errors.New("address in use")
	}

	err := RunServe(context.Background(), env, ServeFlags{})
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Errorf("RunServe() error = %v, want listen error", err)
	}
}
