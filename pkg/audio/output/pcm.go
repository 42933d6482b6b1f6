// ABOUTME: Raw PCM output
// ABOUTME: Writes decoded samples as s16le bytes to an io.Writer
package output

import (
	"fmt"
	"io"

	"github.com/Sendspin/opushandle/pkg/audio"
)

// PCM writes headerless s16le samples
type PCM struct {
	w    io.Writer
	open bool
}

// NewPCM creates a raw PCM sink
func NewPCM(w io.Writer) *PCM {
	return &PCM{w: w}
}

// Open marks the sink ready; raw PCM carries no header
func (o *PCM) Open(sampleRate, channels int) error {
	o.open = true
	return nil
}

// Write appends samples as little-endian bytes
func (o *PCM) Write(samples []int16) error {
	if !o.open {
		return ErrNotOpen
	}
	if _, err := o.w.Write(audio.Int16ToLittleEndian(samples)); err != nil {
		return fmt.Errorf("pcm write failed: %w", err)
	}
	return nil
}

// Close closes the writer when it is an io.Closer
func (o *PCM) Close() error {
	o.open = false
	if c, ok := o.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
