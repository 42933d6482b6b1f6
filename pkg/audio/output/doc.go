// ABOUTME: Audio output package for decoded PCM
// ABOUTME: Provides Output interface with speaker, WAV and raw PCM sinks
// Package output provides sinks for decoded 16-bit PCM.
//
// Supported sinks:
//   - Oto: plays through the default audio device
//   - WAV: writes a RIFF/WAVE file via go-audio/wav
//   - PCM: writes raw s16le bytes to any io.Writer
//
// Example:
//
//	out := output.NewWAV(file)
//	err := out.Open(16000, 1)
//	err = out.Write(samples)
//	err = out.Close()
package output
