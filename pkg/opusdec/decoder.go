// ABOUTME: Opus decoder handle
// ABOUTME: Single-owner wrapper with bounded decode and concealment calls
package opusdec

import (
	"fmt"
	"sync"
)

// MaxFrameSize is the largest Opus frame (120ms) in samples per channel at 48kHz
const MaxFrameSize = 5760

// Decoder owns one engine stream. Calls are serialized; order still matters
// because concealment and FEC depend on the previous packets.
type Decoder struct {
	mu         sync.Mutex
	stream     Stream
	sampleRate int
	channels   int
}

// New creates a decoder on DefaultEngine.
// Sample rate and channel validation is left to the engine.
func New(sampleRate, channels int) (*Decoder, error) {
	return NewWithEngine(DefaultEngine, sampleRate, channels)
}

// NewWithEngine creates a decoder on engine
func NewWithEngine(engine Engine, sampleRate, channels int) (*Decoder, error) {
	if engine == nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", ErrBadArg)
	}

	stream, err := engine.NewStream(sampleRate, channels)
	if err != nil {
		if stream != nil {
			_ = stream.Close()
		}
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	if stream == nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", ErrAllocFail)
	}

	return &Decoder{
		stream:     stream,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Decode decodes one packet into pcm, reconstructing at most maxFrameSize samples
// per channel. pcm must hold at least maxFrameSize*Channels() samples; the engine
// never sees more than that. With fec set the engine recovers the previous (lost)
// frame from the in-band FEC data of packet instead of decoding packet itself.
// Returns decoded samples per channel.
func (d *Decoder) Decode(packet []byte, pcm []float32, maxFrameSize int, fec bool) (int, error) {
	if d == nil {
		return 0, ErrBadArg
	}
	out, err := d.window(pcm, maxFrameSize)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return 0, ErrClosed
	}

	n, err := d.stream.DecodeFloat(packet, out, fec)
	if err != nil {
		return 0, fmt.Errorf("opus decode failed: %w", err)
	}
	return n, nil
}

// Conceal synthesizes frameSize samples per channel of continuation audio from the
// decoder state, for a packet that never arrived. pcm must hold frameSize*Channels() samples.
func (d *Decoder) Conceal(pcm []float32, frameSize int) (int, error) {
	if d == nil {
		return 0, ErrBadArg
	}
	out, err := d.window(pcm, frameSize)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return 0, ErrClosed
	}

	n, err := d.stream.DecodeFloat(nil, out, false)
	if err != nil {
		return 0, fmt.Errorf("opus conceal failed: %w", err)
	}
	return n, nil
}

// window bounds pcm to frames samples per channel, length and capacity both
func (d *Decoder) window(pcm []float32, frames int) ([]float32, error) {
	if pcm == nil || frames <= 0 || d.channels <= 0 || frames > len(pcm)/d.channels {
		return nil, ErrBadArg
	}
	n := frames * d.channels
	return pcm[:n:n], nil
}

// Close releases the engine stream. Later calls are no-ops.
func (d *Decoder) Close() error {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return nil
	}
	err := d.stream.Close()
	d.stream = nil
	return err
}

// SampleRate returns the configured output rate
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

// Channels returns the configured channel count
func (d *Decoder) Channels() int {
	return d.channels
}
