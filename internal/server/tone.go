// ABOUTME: Test tone generator for the stream server
// ABOUTME: Generates a sine wave at half amplitude in any PCM format
package server

import (
	"math"
	"sync"

	"github.com/Sendspin/opushandle/pkg/audio"
)

// DefaultFrequency is A4
const DefaultFrequency = 440.0

// ToneSource generates a continuous sine tone
type ToneSource struct {
	mu          sync.Mutex
	format      audio.Format
	frequency   float64
	sampleIndex uint64
}

// NewToneSource creates a tone generator. frequency <= 0 uses DefaultFrequency.
func NewToneSource(format audio.Format, frequency float64) *ToneSource {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	return &ToneSource{format: format, frequency: frequency}
}

// Read fills samples with interleaved frames, duplicating the tone on every
// channel. Returns the number of samples written.
func (s *ToneSource) Read(samples []int16) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := s.format.Channels
	frames := len(samples) / channels

	for i := range frames {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.format.SampleRate)
		value := int16(math.Sin(2*math.Pi*s.frequency*t) * audio.MaxInt16 * 0.5)
		for ch := range channels {
			samples[i*channels+ch] = value
		}
	}

	s.sampleIndex += uint64(frames)
	return frames * channels
}

// Format returns the generated PCM format
func (s *ToneSource) Format() audio.Format {
	return s.format
}

// Frequency returns the tone frequency in Hz
func (s *ToneSource) Frequency() float64 {
	return s.frequency
}
