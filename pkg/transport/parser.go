// ABOUTME: Length-prefixed Opus frame parser
// ABOUTME: Buffers arbitrary chunks and emits complete payloads with byte-wise resync
package transport

import (
	"encoding/binary"
	"errors"
	"sync"
)

const (
	// HeaderSize is the framing header length
	HeaderSize = 8
	// MaxPayloadSize bounds a plausible payload length
	MaxPayloadSize = 2000
)

// ErrPayloadTooLarge is returned when framing a payload above MaxPayloadSize
var ErrPayloadTooLarge = errors.New("transport: payload too large")

// ErrEmptyPayload is returned when framing an empty payload
var ErrEmptyPayload = errors.New("transport: empty payload")

// Parser reassembles framed payloads. It is safe for concurrent use.
type Parser struct {
	mu  sync.Mutex
	buf []byte

	skipped int
}

// NewParser creates an empty parser
func NewParser() *Parser {
	return &Parser{}
}

// Push appends chunk and returns every payload completed by it, in order
func (p *Parser) Push(chunk []byte) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, chunk...)

	var packets [][]byte
	for len(p.buf) >= HeaderSize {
		n, ok := payloadLength(p.buf)
		if !ok {
			p.buf = p.buf[1:]
			p.skipped++
			continue
		}

		size := HeaderSize + n
		if len(p.buf) < size {
			break
		}

		payload := make([]byte, n)
		copy(payload, p.buf[HeaderSize:size])
		packets = append(packets, payload)
		p.buf = p.buf[size:]
	}

	// drop the consumed prefix so the backing array does not grow forever
	if len(p.buf) == 0 {
		p.buf = nil
	} else if cap(p.buf) > 4*MaxPayloadSize {
		p.buf = append([]byte(nil), p.buf...)
	}

	return packets
}

// payloadLength reads the header length, preferring big-endian
func payloadLength(b []byte) (int, bool) {
	be := binary.BigEndian.Uint32(b[:4])
	if be > 0 && be <= MaxPayloadSize {
		return int(be), true
	}
	le := binary.LittleEndian.Uint32(b[:4])
	if le > 0 && le <= MaxPayloadSize {
		return int(le), true
	}
	return 0, false
}

// Buffered returns the number of bytes waiting for a complete frame
func (p *Parser) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// Skipped returns how many bytes were discarded while resynchronizing
func (p *Parser) Skipped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}

// Reset discards buffered bytes
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = nil
}

// AppendFrame appends payload to dst with a big-endian framing header
func AppendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return dst, ErrEmptyPayload
	}
	if len(payload) > MaxPayloadSize {
		return dst, ErrPayloadTooLarge
	}

	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
	dst = append(dst, header[:]...)
	return append(dst, payload...), nil
}
