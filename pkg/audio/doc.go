// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and float/int16 sample conversion helpers
// Package audio provides fundamental PCM types shared by the decoder pipeline.
//
// The Opus engine produces interleaved float32 samples in [-1, 1]. Sinks consume
// 16-bit little-endian PCM, so this package carries the conversions between the two:
//   - float32 ↔ int16 (with clamping)
//   - int16 → s16le bytes
//
// Example:
//
//	format := audio.Format{SampleRate: 16000, Channels: 1}
//	pcm16 := make([]int16, len(pcm))
//	audio.Float32ToInt16(pcm16, pcm)
package audio
