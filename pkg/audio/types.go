// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats and float/int16 sample conversions
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// 16-bit audio range constants
	MaxInt16 = 32767
	MinInt16 = -32768
)

// Format describes a decoded PCM stream
type Format struct {
	SampleRate int
	Channels   int
}

// FrameDuration returns how long frames samples-per-channel last at this format
func (f Format) FrameDuration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// FramesPer returns the samples-per-channel count for duration d
func (f Format) FramesPer(d time.Duration) int {
	return int(time.Duration(f.SampleRate) * d / time.Second)
}

// SampleFromFloat32 converts a float sample in [-1, 1] to int16, clamping out-of-range input
func SampleFromFloat32(sample float32) int16 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	// 32767 on both sides keeps the conversion symmetric
	return int16(sample * MaxInt16)
}

// SampleToFloat32 converts an int16 sample to a float in [-1, 1)
func SampleToFloat32(sample int16) float32 {
	return float32(sample) / 32768.0
}

// Float32ToInt16 converts interleaved float samples into dst and returns the number written
func Float32ToInt16(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = SampleFromFloat32(src[i])
	}
	return n
}

// Int16ToFloat32 converts interleaved int16 samples into dst and returns the number written
func Int16ToFloat32(dst []float32, src []int16) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = SampleToFloat32(src[i])
	}
	return n
}

// Int16ToLittleEndian packs samples as s16le bytes
func Int16ToLittleEndian(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
