package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// EncodeWAV encodes float32 PCM samples as a mono 16-bit PCM WAV file at
// sampleRate.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	var buf bytes.Buffer
	// wav.NewEncoder patches the header on Close, so it needs to seek.
	sw := &seekBuffer{buf: &buf}

	enc := wav.NewEncoder(sw, sampleRate, Depth, Channels, 1) // 1 = PCM

	pcm := &goaudio.Float32Buffer{
		Data:           clamp(samples),
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: Channels},
		SourceBitDepth: Depth,
	}

	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// clamp limits samples to [-1, 1] and maps NaN to silence. The input is
// not modified.
func clamp(samples []float32) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		switch {
		case math.IsNaN(float64(s)):
			out[i] = 0
		case s > 1:
			out[i] = 1
		case s < -1:
			out[i] = -1
		default:
			out[i] = s
		}
	}
	return out
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}

	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		s.buf.Write(p[n:])
	}
	s.pos += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(s.pos) + offset
	case io.SeekEnd:
		pos = int64(s.buf.Len()) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, errors.New("seek before start")
	}
	if pos > int64(s.buf.Len()) {
		return 0, errors.New("seek past end")
	}
	s.pos = int(pos)
	return pos, nil
}
