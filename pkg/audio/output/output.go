// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for decoded PCM sinks
package output

import "errors"

// ErrNotOpen is returned by Write before Open
var ErrNotOpen = errors.New("output not initialized")

// Output consumes interleaved 16-bit PCM
type Output interface {
	// Open prepares the sink for the given format
	Open(sampleRate, channels int) error

	// Write outputs samples (blocks until written)
	Write(samples []int16) error

	// Close flushes and releases the sink
	Close() error
}
