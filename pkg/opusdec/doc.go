// ABOUTME: Opus decoder handle package
// ABOUTME: Owns one engine decoder stream and exposes decode and concealment calls
// Package opusdec wraps a single Opus decoder stream.
//
// A Decoder owns exactly one engine stream configured for a fixed sample rate and
// channel count. It forwards compressed packets to the engine's float decode
// primitive and asks the engine to synthesize a continuation frame when a packet
// is missing (packet loss concealment). The decoding itself is done by libopus
// through gopkg.in/hraban/opus.v2; this package only manages lifetime, buffer
// bounds and error codes.
//
// Example:
//
//	dec, err := opusdec.New(16000, 1)
//	if err != nil {
//	    return err
//	}
//	defer dec.Close()
//
//	pcm := make([]float32, 320)
//	n, err := dec.Decode(packet, pcm, 320, false)
//	// pcm[:n*dec.Channels()] holds the decoded samples
//
//	// packet lost: conceal 20ms
//	n, err = dec.Conceal(pcm, 320)
//
// Engine error codes are passed through unchanged; use Code to read the raw value.
package opusdec
