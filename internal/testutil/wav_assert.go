package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// wavHeaderSize is the canonical RIFF header with one fmt chunk.
const wavHeaderSize = 44

// AssertValidWAV fails tb unless data holds mono 16-bit PCM at sampleRate
// with a non-empty data chunk. It reads the header bytes directly so it does
// not share code with the encoder under test.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate uint32) {
	tb.Helper()

	if len(data) < wavHeaderSize {
		tb.Fatalf("WAV is %d bytes; the header alone needs %d", len(data), wavHeaderSize)
	}

	for _, tag := range []struct {
		at   int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}} {
		if got := string(data[tag.at : tag.at+4]); got != tag.want {
			tb.Fatalf("WAV tag at byte %d = %q; want %q", tag.at, got, tag.want)
		}
	}

	le := binary.LittleEndian
	for _, field := range []struct {
		name      string
		got, want uint32
	}{
		{"format", uint32(le.Uint16(data[20:22])), 1},
		{"channels", uint32(le.Uint16(data[22:24])), 1},
		{"sample rate", le.Uint32(data[24:28]), sampleRate},
		{"bits per sample", uint32(le.Uint16(data[34:36])), 16},
	} {
		if field.got != field.want {
			tb.Fatalf("WAV %s = %d; want %d", field.name, field.got, field.want)
		}
	}

	if WAVSampleCount(tb, data) == 0 {
		tb.Fatal("WAV data chunk is empty")
	}
}

// WAVSampleCount returns how many 16-bit mono samples the data chunk holds.
func WAVSampleCount(tb testing.TB, data []byte) int {
	tb.Helper()

	size, err := dataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	return int(size / 2)
}

func dataChunkSize(data []byte) (uint32, error) {
	for off := 12; off+8 <= len(data); {
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		if string(data[off:off+4]) == "data" {
			return size, nil
		}
		// Chunks are word aligned.
		off += 8 + int(size) + int(size%2)
	}
	return 0, errors.New("no data chunk")
}
