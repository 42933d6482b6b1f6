// ABOUTME: Opus packet TOC inspection
// ABOUTME: Reads mode, stereo flag and frame counts to size concealment frames
package opusdec

import "fmt"

type (
	// TOC is the first byte of every Opus packet:
	//
	//	 0 1 2 3 4 5 6 7
	//	+-+-+-+-+-+-+-+-+
	//	| config  |s| c |
	//	+-+-+-+-+-+-+-+-+
	//
	// https://datatracker.ietf.org/doc/html/rfc6716#section-3.1
	TOC byte

	// Configuration is the 5-bit config number selecting mode, bandwidth and frame size
	Configuration byte

	// Mode is the coding layer combination of a configuration
	Mode byte

	// FrameCode is the number-of-frames code (0-3) of a packet
	FrameCode byte
)

// Frame code constants
const (
	OneFrame FrameCode = iota
	TwoEqualFrames
	TwoDifferentFrames
	ArbitraryFrames
)

// Mode constants
const (
	Silk Mode = iota + 1
	Hybrid
	CELT
)

// String returns a human-readable mode name
func (m Mode) String() string {
	switch m {
	case Silk:
		return "SILK"
	case Hybrid:
		return "Hybrid"
	case CELT:
		return "CELT"
	}
	return "invalid"
}

// Configuration returns the config number
func (t TOC) Configuration() Configuration {
	return Configuration(t >> 3)
}

// IsStereo reports the stereo flag
func (t TOC) IsStereo() bool {
	return t&0b00000100 != 0
}

// FrameCode returns the frame count code
func (t TOC) FrameCode() FrameCode {
	return FrameCode(t & 0b00000011)
}

// String returns a human-readable representation of the TOC
func (t TOC) String() string {
	return fmt.Sprintf("opus_toc: config=%d mode=%s stereo=%v code=%d",
		t.Configuration(), t.Configuration().Mode(), t.IsStereo(), t.FrameCode())
}

// Mode returns the coding mode of c
func (c Configuration) Mode() Mode {
	switch {
	case c <= 11:
		return Silk
	case c <= 15:
		return Hybrid
	case c <= 31:
		return CELT
	}
	return 0
}

// SamplesPerFrame returns the samples per channel of one frame at sampleRate
func (c Configuration) SamplesPerFrame(sampleRate int) int {
	switch c.Mode() {
	case CELT:
		// 2.5, 5, 10, 20ms
		return (sampleRate << (c & 0x3)) / 400
	case Hybrid:
		// 10, 20ms
		if c&0x1 != 0 {
			return sampleRate / 50
		}
		return sampleRate / 100
	case Silk:
		// 10, 20, 40, 60ms
		if c&0x3 == 3 {
			return sampleRate * 60 / 1000
		}
		return (sampleRate << (c & 0x3)) / 100
	}
	return 0
}

// PacketFrames returns the number of frames in packet
func PacketFrames(packet []byte) (int, error) {
	if len(packet) == 0 {
		return 0, ErrInvalidPacket
	}
	switch TOC(packet[0]).FrameCode() {
	case OneFrame:
		return 1, nil
	case TwoEqualFrames, TwoDifferentFrames:
		return 2, nil
	default:
		if len(packet) < 2 || packet[1]&0x3f == 0 {
			return 0, ErrInvalidPacket
		}
		return int(packet[1] & 0x3f), nil
	}
}

// PacketSamples returns the samples per channel packet decodes to at sampleRate.
// Packets longer than 120ms are invalid.
func PacketSamples(packet []byte, sampleRate int) (int, error) {
	frames, err := PacketFrames(packet)
	if err != nil {
		return 0, err
	}
	samples := frames * TOC(packet[0]).Configuration().SamplesPerFrame(sampleRate)
	if samples*25 > sampleRate*3 {
		return 0, ErrInvalidPacket
	}
	return samples, nil
}
