// Package audio encodes and decodes the mono PCM WAV audio exchanged with
// the synthesis engine.
package audio

// Kokoro renders 24 kHz mono audio; everything is written as 16-bit PCM.
const (
	SampleRate = 24000
	Channels   = 1
	Depth      = 16
)

// Concat joins chunks of samples in order into one buffer.
func Concat(chunks ...[]float32) []float32 {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]float32, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Duration returns the playback length of n samples in seconds.
func Duration(n, sampleRate int) float64 {
	if sampleRate < 1 {
		return 0
	}
	return float64(n) / float64(sampleRate)
}
