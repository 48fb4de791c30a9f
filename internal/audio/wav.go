package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// convertWAV reads a PCM WAV of any rate and channel count and writes it as
// mono 16 kHz 16-bit PCM.
func convertWAV(srcPath, dstPath string) error {
	// #nosec G304 -- path is inside the request directory
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer func() { _ = src.Close() }()

	dec := wav.NewDecoder(src)
	if !dec.IsValidFile() {
		return fmt.Errorf("%w: %s is not a PCM WAV file", ErrDecode, srcPath)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate < 1 {
		return fmt.Errorf("%w: missing format chunk", ErrDecode)
	}

	samples := to16Bit(buf.Data, int(dec.BitDepth))
	mono := downmix(samples, buf.Format.NumChannels)
	out := resample(mono, buf.Format.SampleRate, SampleRate)

	return writeWAV(dstPath, out)
}

// writeWAV encodes mono 16-bit samples at SampleRate.
func writeWAV(path string, samples []int) error {
	// #nosec G304 -- path is inside the request directory
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}

	enc := wav.NewEncoder(f, SampleRate, BitDepth, Channels, 1)
	writeErr := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: BitDepth,
	})
	if writeErr == nil {
		writeErr = enc.Close()
	}
	closeErr := f.Close()

	if writeErr != nil {
		return fmt.Errorf("encode audio: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("encode audio: %w", closeErr)
	}
	return nil
}

// to16Bit rescales integer samples of the given bit depth to signed 16-bit.
// 8-bit WAV is unsigned and centered on 128.
func to16Bit(data []int, bitDepth int) []int {
	out := make([]int, len(data))
	switch {
	case bitDepth == 8:
		for i, v := range data {
			out[i] = (v - 128) << 8
		}
	case bitDepth > 16:
		shift := uint(bitDepth - 16)
		for i, v := range data {
			out[i] = v >> shift
		}
	default:
		copy(out, data)
	}
	return out
}

// downmix averages interleaved channels into one. A trailing partial frame is
// dropped.
func downmix(data []int, channels int) []int {
	if channels <= 1 {
		return data
	}
	frames := len(data) / channels
	out := make([]int, frames)
	for f := range frames {
		sum := 0
		for c := range channels {
			sum += data[f*channels+c]
		}
		out[f] = sum / channels
	}
	return out
}

// resample converts mono samples between rates by linear interpolation.
func resample(samples []int, from, to int) []int {
	if from == to || len(samples) == 0 {
		return samples
	}

	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]int, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1

	for i := range n {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(j)
		v := float64(samples[j])*(1-frac) + float64(samples[j+1])*frac
		out[i] = clamp16(int(math.Round(v)))
	}
	return out
}

func clamp16(v int) int {
	return max(math.MinInt16, min(math.MaxInt16, v))
}
