// ABOUTME: Audio encoder package for producing Opus packets
// ABOUTME: Used by the tone server and by decoder round-trip tests
// Package encode provides an Opus encoder over libopus.
//
// The encoder accepts interleaved int16 or float32 PCM, one Opus frame
// (2.5, 5, 10, 20, 40 or 60ms) per call.
//
// Example:
//
//	enc, err := encode.NewOpus(audio.Format{SampleRate: 16000, Channels: 1}, encode.Options{})
//	packet, err := enc.Encode(pcm)
package encode
