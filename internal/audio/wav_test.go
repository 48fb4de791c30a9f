package audio_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alnah/vidsub/internal/audio"
)

// ---------------------------------------------------------------------------
// Sample conversions
// ---------------------------------------------------------------------------

func TestDownmix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []int
		channels int
		want     []int
	}{
		{"mono passthrough", []int{1, 2, 3}, 1, []int{1, 2, 3}},
		{"stereo average", []int{100, 300, -100, -300}, 2, []int{200, -200}},
		{"5.1 average", []int{6, 6, 6, 6, 6, 6}, 6, []int{6}},
		{"partial frame dropped", []int{10, 20, 30}, 2, []int{15}},
		{"empty", nil, 2, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := audio.Downmix(tt.data, tt.channels); !slices.Equal(got, tt.want) {
				t.Errorf("Downmix(%v, %d) = %v, want %v", tt.data, tt.channels, got, tt.want)
			}
		})
	}
}

func TestResample(t *testing.T) {
	t.Parallel()

	t.Run("same rate is identity", func(t *testing.T) {
		t.Parallel()

		in := []int{1, 2, 3}
		if got := audio.Resample(in, 16000, 16000); !slices.Equal(got, in) {
			t.Errorf("Resample() = %v, want %v", got, in)
		}
	})

	t.Run("downsample halves length", func(t *testing.T) {
		t.Parallel()

		in := []int{0, 100, 200, 300, 400, 500, 600, 700}
		got := audio.Resample(in, 32000, 16000)
		want := []int{0, 200, 400, 600}
		if !slices.Equal(got, want) {
			t.Errorf("Resample() = %v, want %v", got, want)
		}
	})

	t.Run("upsample interpolates", func(t *testing.T) {
		t.Parallel()

		got := audio.Resample([]int{0, 100, 200, 300}, 8000, 16000)
		want := []int{0, 50, 100, 150, 200, 250, 300, 300}
		if !slices.Equal(got, want) {
			t.Errorf("Resample() = %v, want %v", got, want)
		}
	})

	t.Run("48k to 16k length", func(t *testing.T) {
		t.Parallel()

		if got := audio.Resample(make([]int, 48000), 48000, 16000); len(got) != 16000 {
			t.Errorf("len = %d, want 16000", len(got))
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		if got := audio.Resample(nil, 44100, 16000); len(got) != 0 {
			t.Errorf("Resample(nil) = %v", got)
		}
	})
}

func TestTo16Bit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []int
		bitDepth int
		want     []int
	}{
		{"16-bit unchanged", []int{-32768, 0, 32767}, 16, []int{-32768, 0, 32767}},
		{"8-bit unsigned", []int{0, 128, 255}, 8, []int{-32768, 0, 32512}},
		{"24-bit", []int{-8388608, 256, 8388607}, 24, []int{-32768, 1, 32767}},
		{"32-bit", []int{1 << 30}, 32, []int{1 << 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := audio.To16Bit(tt.data, tt.bitDepth); !slices.Equal(got, tt.want) {
				t.Errorf("To16Bit(%v, %d) = %v, want %v", tt.data, tt.bitDepth, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConvertWAV
// ---------------------------------------------------------------------------

func TestConvertWAV(t *testing.T) {
	t.Parallel()

	t.Run("48k mono becomes 16k mono", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := filepath.Join(dir, "native.wav")
		dst := filepath.Join(dir, "audio.wav")
		if err := writeWAV(src, 48000, 1, make([]int, 24000)); err != nil {
			t.Fatal(err)
		}

		if err := audio.ConvertWAV(src, dst); err != nil {
			t.Fatalf("ConvertWAV() unexpected error: %v", err)
		}
		dec, buf := readWAV(t, dst)
		if dec.NumChans != 1 || dec.SampleRate != 16000 {
			t.Errorf("format = %d ch %d Hz", dec.NumChans, dec.SampleRate)
		}
		if len(buf.Data) != 8000 {
			t.Errorf("samples = %d, want 8000", len(buf.Data))
		}
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := audio.ConvertWAV(filepath.Join(dir, "none.wav"), filepath.Join(dir, "out.wav"))
		if !errors.Is(err, audio.ErrDecode) {
			t.Errorf("ConvertWAV() error = %v, want ErrDecode", err)
		}
	})

	t.Run("not a wav", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := filepath.Join(dir, "native.wav")
		if err := os.WriteFile(src, []byte("ID3 mp3 data"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := audio.ConvertWAV(src, filepath.Join(dir, "out.wav")); !errors.Is(err, audio.ErrDecode) {
			t.Errorf("ConvertWAV() error = %v, want ErrDecode", err)
		}
	})
}
