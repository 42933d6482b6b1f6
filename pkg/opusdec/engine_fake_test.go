// ABOUTME: Resource-tracking fake engine for decoder tests
// ABOUTME: Counts stream allocations and engine calls without linking libopus
package opusdec

import (
	"sync"
)

var fakeRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

// fakeEngine accepts the libopus configuration set and tracks live streams
type fakeEngine struct {
	mu      sync.Mutex
	created int
	closed  int
	calls   int

	// partial makes NewStream return a stream together with an error
	partial bool
}

func (e *fakeEngine) NewStream(sampleRate, channels int) (Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	valid := fakeRates[sampleRate] && (channels == 1 || channels == 2)
	if !valid && !e.partial {
		return nil, ErrBadArg
	}

	e.created++
	s := &fakeStream{engine: e, channels: channels}
	if e.partial {
		return s, ErrAllocFail
	}
	return s, nil
}

func (e *fakeEngine) live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created - e.closed
}

func (e *fakeEngine) engineCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// fakeStream "decodes" a packet by filling the frame with packet[0]/255.
// Concealment repeats the last level at half amplitude, so its output depends on call order.
// A packet starting with 0xff is treated as corrupt.
type fakeStream struct {
	engine   *fakeEngine
	channels int
	level    float32
	lastLen  int
	lastCap  int
}

func (s *fakeStream) DecodeFloat(packet []byte, pcm []float32, fec bool) (int, error) {
	s.engine.mu.Lock()
	s.engine.calls++
	s.engine.mu.Unlock()

	s.lastLen, s.lastCap = len(pcm), cap(pcm)

	switch {
	case len(packet) == 0:
		s.level /= 2
	case packet[0] == 0xff:
		return 0, ErrInvalidPacket
	case fec:
		// recovered frame sits between the previous level and the new packet
		s.level = (s.level + float32(packet[0])/255) / 2
	default:
		s.level = float32(packet[0]) / 255
	}

	for i := range pcm {
		pcm[i] = s.level
	}
	return len(pcm) / s.channels, nil
}

func (s *fakeStream) Close() error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	s.engine.closed++
	return nil
}
