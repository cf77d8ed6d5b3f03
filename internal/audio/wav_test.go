package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// makeWAV builds a minimal valid WAV file from parameters for testing.
func makeWAV(sampleRate uint32, numChannels uint16, bitDepth uint16, numSamples int) []byte {
	blockAlign := numChannels * bitDepth / 8
	byteRate := sampleRate * uint32(blockAlign)
	dataSize := uint32(numSamples) * uint32(blockAlign)
	riffSize := 4 + (8 + 16) + (8 + dataSize)

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bitDepth)

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	t.Run("decodes mono 16-bit at any rate", func(t *testing.T) {
		for _, rate := range []uint32{24000, 22050} {
			samples, got, err := DecodeWAV(makeWAV(rate, 1, 16, 100))
			if err != nil {
				t.Fatalf("rate %d: unexpected error: %v", rate, err)
			}
			if len(samples) != 100 {
				t.Errorf("rate %d: got %d samples, want 100", rate, len(samples))
			}
			if got != int(rate) {
				t.Errorf("sample rate = %d, want %d", got, rate)
			}
		}
	})

	t.Run("rejects stereo", func(t *testing.T) {
		_, _, err := DecodeWAV(makeWAV(24000, 2, 16, 10))
		if !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("expected ErrFormatMismatch, got %v", err)
		}
	})

	t.Run("rejects 8-bit", func(t *testing.T) {
		_, _, err := DecodeWAV(makeWAV(24000, 1, 8, 10))
		if !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("expected ErrFormatMismatch, got %v", err)
		}
	})

	t.Run("rejects invalid WAV data", func(t *testing.T) {
		if _, _, err := DecodeWAV([]byte("not a wav file")); err == nil {
			t.Fatal("expected error for invalid WAV")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, _, err := DecodeWAV(nil); err == nil {
			t.Fatal("expected error for nil input")
		}
	})
}

func TestEncodeWAV(t *testing.T) {
	t.Run("writes RIFF header and format", func(t *testing.T) {
		data, err := EncodeWAV(make([]float32, 50), SampleRate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) < 44 {
			t.Fatalf("WAV too short: %d bytes", len(data))
		}
		if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
			t.Errorf("missing RIFF/WAVE header")
		}

		if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
			t.Errorf("sample rate = %d, want %d", got, SampleRate)
		}
		if got := binary.LittleEndian.Uint16(data[22:24]); got != Channels {
			t.Errorf("channels = %d, want %d", got, Channels)
		}
		if got := binary.LittleEndian.Uint16(data[34:36]); got != Depth {
			t.Errorf("bit depth = %d, want %d", got, Depth)
		}
	})

	t.Run("rejects invalid sample rate", func(t *testing.T) {
		for _, rate := range []int{0, -1} {
			if _, err := EncodeWAV(nil, rate); err == nil {
				t.Errorf("EncodeWAV(rate=%d) expected error", rate)
			}
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		in := []float32{2, -3, 0.5}
		if _, err := EncodeWAV(in, SampleRate); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if in[0] != 2 || in[1] != -3 {
			t.Errorf("input modified: %v", in)
		}
	})
}

func TestDecodeEncodeRoundtrip(t *testing.T) {
	original := []float32{0.0, 0.5, -0.5, 1.0, -1.0}
	encoded, err := EncodeWAV(original, 16000)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	decoded, rate, err := DecodeWAV(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
	if len(decoded) != len(original) {
		t.Fatalf("roundtrip: got %d samples, want %d", len(decoded), len(original))
	}

	// 16-bit quantization introduces error up to ~1/32768.
	const tolerance = 1.0 / 32768.0 * 2
	for i, want := range original {
		if got := decoded[i]; math.Abs(float64(got-want)) > tolerance {
			t.Errorf("sample[%d] = %f, want %f", i, got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	in := []float32{1.5, -1.5, float32(math.NaN()), 0.25}
	got := clamp(in)
	want := []float32{1, -1, 0, 0.25}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clamp[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConcat(t *testing.T) {
	got := Concat([]float32{1, 2}, nil, []float32{3})
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Concat = %v, want [1 2 3]", got)
	}
	if got := Concat(); len(got) != 0 {
		t.Errorf("Concat() = %v, want empty", got)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(SampleRate, SampleRate); got != 1 {
		t.Errorf("Duration = %v, want 1", got)
	}
	if got := Duration(100, 0); got != 0 {
		t.Errorf("Duration with zero rate = %v, want 0", got)
	}
}

func TestSeekBuffer(t *testing.T) {
	var buf bytes.Buffer
	sb := &seekBuffer{buf: &buf}
	_, _ = sb.Write([]byte("abcdef"))
	if _, err := sb.Seek(2, 0); err != nil {
		t.Fatal(err)
	}
	_, _ = sb.Write([]byte("XYZWV"))
	if got := buf.String(); got != "abXYZWV" {
		t.Errorf("buffer = %q, want abXYZWV", got)
	}
	if _, err := sb.Seek(-1, 0); err == nil {
		t.Error("expected error seeking before start")
	}
}
