//go:build !cgo

// ABOUTME: Placeholder engine for builds without cgo
// ABOUTME: Every stream creation fails because libopus cannot be linked
package opusdec

import "fmt"

// DefaultEngine is the engine used by New
var DefaultEngine Engine = EngineFunc(func(sampleRate, channels int) (Stream, error) {
	return nil, fmt.Errorf("%w: opus decoding requires cgo and libopus", ErrUnimplemented)
})
