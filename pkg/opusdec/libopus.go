//go:build cgo

// ABOUTME: libopus engine backed by gopkg.in/hraban/opus.v2
// ABOUTME: Routes decode, FEC and PLC requests to the matching cgo primitive
package opusdec

import (
	"errors"
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// DefaultEngine is the engine used by New
var DefaultEngine Engine = Libopus{}

// Libopus is the libopus decoding engine
type Libopus struct{}

// NewStream creates a libopus decoder
func (Libopus) NewStream(sampleRate, channels int) (Stream, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, engineError(err, ErrBadArg)
	}
	return &libopusStream{dec: dec, channels: channels}, nil
}

type libopusStream struct {
	dec      *opus.Decoder
	channels int
}

// DecodeFloat picks PLC, FEC or regular decode. hraban sizes the request from cap(pcm),
// which the Decoder pins to the requested frame size.
func (s *libopusStream) DecodeFloat(packet []byte, pcm []float32, fec bool) (int, error) {
	if s.dec == nil {
		return 0, ErrInvalidState
	}

	switch {
	case len(packet) == 0:
		if err := s.dec.DecodePLCFloat32(pcm); err != nil {
			return 0, engineError(err, ErrInternal)
		}
		return len(pcm) / s.channels, nil
	case fec:
		if err := s.dec.DecodeFECFloat32(packet, pcm); err != nil {
			return 0, engineError(err, ErrInternal)
		}
		return len(pcm) / s.channels, nil
	default:
		n, err := s.dec.DecodeFloat32(packet, pcm)
		if err != nil {
			return 0, engineError(err, ErrInternal)
		}
		return n, nil
	}
}

// Close drops the decoder; hraban keeps the libopus state in Go memory
func (s *libopusStream) Close() error {
	s.dec = nil
	return nil
}

// engineError keeps libopus codes as-is and tags binding-level errors with fallback
func engineError(err error, fallback Error) error {
	var oe opus.Error
	if errors.As(err, &oe) {
		return Error(oe)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
