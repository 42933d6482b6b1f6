// ABOUTME: Error codes for the Opus decoder handle
// ABOUTME: Mirrors libopus status codes so engine failures pass through verbatim
package opusdec

import "errors"

// Error is a libopus status code. Negative values are failures.
type Error int

// libopus status codes (opus_defines.h)
const (
	ErrOK             Error = 0
	ErrBadArg         Error = -1
	ErrBufferTooSmall Error = -2
	ErrInternal       Error = -3
	ErrInvalidPacket  Error = -4
	ErrUnimplemented  Error = -5
	ErrInvalidState   Error = -6
	ErrAllocFail      Error = -7
)

// ErrClosed is returned by Decode and Conceal after Close
var ErrClosed = errors.New("opus: decoder is closed")

func (e Error) Error() string {
	switch e {
	case ErrOK:
		return "opus: success"
	case ErrBadArg:
		return "opus: invalid argument"
	case ErrBufferTooSmall:
		return "opus: buffer too small"
	case ErrInternal:
		return "opus: internal error"
	case ErrInvalidPacket:
		return "opus: corrupted stream"
	case ErrUnimplemented:
		return "opus: request not implemented"
	case ErrInvalidState:
		return "opus: invalid state"
	case ErrAllocFail:
		return "opus: memory allocation failed"
	}
	return "opus: unknown error"
}

// Code returns the libopus status code carried by err.
// nil maps to 0, ErrClosed to ErrInvalidState and anything unrecognized to ErrInternal.
func Code(err error) int {
	if err == nil {
		return int(ErrOK)
	}
	var e Error
	if errors.As(err, &e) {
		return int(e)
	}
	if errors.Is(err, ErrClosed) {
		return int(ErrInvalidState)
	}
	return int(ErrInternal)
}
