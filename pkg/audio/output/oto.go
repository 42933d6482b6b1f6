// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays decoded PCM with software volume control using oto library
package output

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Sendspin/opushandle/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool

	// volume and muted change from the UI goroutine
	mu     sync.Mutex
	volume int
	muted  bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{volume: 100}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	// oto allows one context per process
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Printf("Warning: format change detected (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// persistent player fed by a pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)
	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int16) error {
	if !o.ready {
		return ErrNotOpen
	}

	o.mu.Lock()
	volume, muted := o.volume, o.muted
	o.mu.Unlock()

	output := audio.Int16ToLittleEndian(applyVolume(samples, volume, muted))
	if _, err := o.pipeWriter.Write(output); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = max(0, min(volume, 100))
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
}

// applyVolume scales samples, clamping to the int16 range
func applyVolume(samples []int16, volume int, muted bool) []int16 {
	if volume == 100 && !muted {
		return samples
	}

	multiplier := 0.0
	if !muted {
		multiplier = float64(volume) / 100.0
	}

	result := make([]int16, len(samples))
	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)
		scaled = max(audio.MinInt16, min(scaled, audio.MaxInt16))
		result[i] = int16(scaled)
	}
	return result
}
