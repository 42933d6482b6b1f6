// ABOUTME: Packet sources feeding a decode stream
// ABOUTME: Common Source interface and the io.Reader chunk source
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ChunkSize is the default read size, one BLE notification payload
const ChunkSize = 244

// chunkBuffer is the channel depth for all sources
const chunkBuffer = 100

// Source produces raw transport chunks
type Source interface {
	// Start begins producing chunks. The channel closes when the source
	// ends or ctx is cancelled.
	Start(ctx context.Context) (<-chan []byte, error)
	// Err reports why the source ended, nil for a clean end
	Err() error
	// Name describes the source for display
	Name() string
}

// result records the terminal error of a source
type result struct {
	mu  sync.Mutex
	err error
}

func (r *result) set(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first error recorded
func (r *result) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Reader chunks an io.Reader such as a file or stdin
type Reader struct {
	result
	r    io.Reader
	size int
	name string
}

// NewReader creates a reader source. size <= 0 uses ChunkSize.
func NewReader(r io.Reader, name string, size int) *Reader {
	if size <= 0 {
		size = ChunkSize
	}
	return &Reader{r: r, size: size, name: name}
}

// Name implements Source
func (s *Reader) Name() string {
	return s.name
}

// Start implements Source
func (s *Reader) Start(ctx context.Context) (<-chan []byte, error) {
	if s.r == nil {
		return nil, fmt.Errorf("reader source %q has no input", s.name)
	}

	chunks := make(chan []byte, chunkBuffer)
	go func() {
		defer close(chunks)
		for {
			buf := make([]byte, s.size)
			n, err := s.r.Read(buf)
			if n > 0 {
				select {
				case chunks <- buf[:n]:
				case <-ctx.Done():
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				s.set(fmt.Errorf("read failed: %w", err))
				return
			}
		}
	}()
	return chunks, nil
}
