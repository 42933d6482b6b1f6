// ABOUTME: Opus audio encoder
// ABOUTME: Encodes int16 or float32 PCM frames to Opus packets
package encode

import (
	"fmt"
	"log"

	"github.com/Sendspin/opushandle/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// MaxPacketSize is the largest Opus packet libopus produces
const MaxPacketSize = 4000

// Options tunes the encoder
type Options struct {
	// Bitrate in bits per second; 0 keeps 32kbps per channel
	Bitrate int
	// VoIP selects the speech-optimized application mode
	VoIP bool
	// FEC embeds in-band forward error correction data
	FEC bool
	// PacketLossPerc is the expected loss percentage used to size FEC
	PacketLossPerc int
}

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder *opus.Encoder
	format  audio.Format
	buf     []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format, opts Options) (*OpusEncoder, error) {
	app := opus.AppAudio
	if opts.VoIP {
		app = opus.AppVoIP
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, app)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	bitrate := opts.Bitrate
	if bitrate == 0 {
		bitrate = 32000 * format.Channels
	}
	if err := encoder.SetBitrate(bitrate); err != nil {
		log.Printf("Warning: Failed to set Opus bitrate: %v", err)
	}

	if opts.FEC {
		if err := encoder.SetInBandFEC(true); err != nil {
			return nil, fmt.Errorf("failed to enable opus FEC: %w", err)
		}
		if err := encoder.SetPacketLossPerc(opts.PacketLossPerc); err != nil {
			return nil, fmt.Errorf("failed to set opus packet loss: %w", err)
		}
	}

	return &OpusEncoder{
		encoder: encoder,
		format:  format,
		buf:     make([]byte, MaxPacketSize),
	}, nil
}

// Encode converts one frame of int16 samples to an Opus packet
func (e *OpusEncoder) Encode(pcm []int16) ([]byte, error) {
	n, err := e.encoder.Encode(pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}
	return append([]byte(nil), e.buf[:n]...), nil
}

// EncodeFloat converts one frame of float samples to an Opus packet
func (e *OpusEncoder) EncodeFloat(pcm []float32) ([]byte, error) {
	n, err := e.encoder.EncodeFloat32(pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}
	return append([]byte(nil), e.buf[:n]...), nil
}

// Format returns the encoder input format
func (e *OpusEncoder) Format() audio.Format {
	return e.format
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	// opus.Encoder holds Go memory only
	return nil
}
