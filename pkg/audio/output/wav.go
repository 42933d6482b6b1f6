// ABOUTME: WAV file output
// ABOUTME: Writes decoded PCM as 16-bit RIFF/WAVE through go-audio/wav
package output

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV writes a 16-bit PCM WAV file. The header sizes are fixed up on Close.
type WAV struct {
	w       io.WriteSeeker
	encoder *wav.Encoder
	format  *goaudio.Format
	buf     *goaudio.IntBuffer
}

// NewWAV creates a WAV sink writing to w
func NewWAV(w io.WriteSeeker) *WAV {
	return &WAV{w: w}
}

// Open writes the WAV header for the format
func (o *WAV) Open(sampleRate, channels int) error {
	if o.encoder != nil {
		return fmt.Errorf("wav output already open")
	}
	o.encoder = wav.NewEncoder(o.w, sampleRate, 16, channels, 1)
	o.format = &goaudio.Format{NumChannels: channels, SampleRate: sampleRate}
	o.buf = &goaudio.IntBuffer{Format: o.format, SourceBitDepth: 16}
	return nil
}

// Write appends samples
func (o *WAV) Write(samples []int16) error {
	if o.encoder == nil {
		return ErrNotOpen
	}

	if cap(o.buf.Data) < len(samples) {
		o.buf.Data = make([]int, len(samples))
	}
	o.buf.Data = o.buf.Data[:len(samples)]
	for i, s := range samples {
		o.buf.Data[i] = int(s)
	}

	if err := o.encoder.Write(o.buf); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	return nil
}

// Close finalizes the file header
func (o *WAV) Close() error {
	if o.encoder == nil {
		return nil
	}
	err := o.encoder.Close()
	o.encoder = nil
	if err != nil {
		return fmt.Errorf("wav close failed: %w", err)
	}
	return nil
}
