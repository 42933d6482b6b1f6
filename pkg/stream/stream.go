// ABOUTME: Decode pipeline for a single Opus stream
// ABOUTME: Parses, decodes, conceals and writes PCM while tracking stats
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sendspin/opushandle/pkg/audio"
	"github.com/Sendspin/opushandle/pkg/audio/output"
	"github.com/Sendspin/opushandle/pkg/opusdec"
	"github.com/Sendspin/opushandle/pkg/transport"
	"github.com/google/uuid"
)

// Transport names accepted by Config.Transport
const (
	TransportFramed = "framed"
	TransportRTP    = "rtp"
)

// Decoder is the subset of opusdec.Decoder a stream needs
type Decoder interface {
	Decode(packet []byte, pcm []float32, maxFrameSize int, fec bool) (int, error)
	Conceal(pcm []float32, frameSize int) (int, error)
	SampleRate() int
	Channels() int
}

// Config controls a stream
type Config struct {
	// MaxFrameSize is the per-channel frame capacity handed to the decoder
	MaxFrameSize int
	// FEC recovers a single lost RTP packet from the next packet's redundancy
	FEC bool
	// Transport is TransportFramed or TransportRTP
	Transport string
	// PayloadType filters RTP packets when non-zero
	PayloadType uint8
	// Observer receives metric events; nil disables them
	Observer Observer
}

// Stats is a snapshot of stream counters
type Stats struct {
	Packets   uint64 // opus packets received
	Decoded   uint64 // frames decoded normally
	Concealed uint64 // frames synthesized by PLC
	Recovered uint64 // frames recovered from FEC
	Errors    uint64 // packets the decoder rejected
	Lost      uint64 // packets missing from the RTP sequence
	Dropped   uint64 // datagrams discarded before decoding
	Samples   uint64 // per-channel samples written
}

// Stream decodes one Opus stream into an output
type Stream struct {
	mu  sync.Mutex
	id  string
	cfg Config
	dec Decoder
	out output.Output
	obs Observer

	parser *transport.Parser
	rtp    transport.RTPDepacketizer

	pcm       []float32
	samples   []int16
	lastFrame int
	opened    bool
	closed    bool
	stats     Stats
}

// New creates a stream. A zero MaxFrameSize uses the decoder's 20 ms frame.
func New(cfg Config, dec Decoder, out output.Output) *Stream {
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = dec.SampleRate() / 50
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportFramed
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	s := &Stream{
		id:        uuid.New().String(),
		cfg:       cfg,
		dec:       dec,
		out:       out,
		obs:       obs,
		parser:    transport.NewParser(),
		pcm:       make([]float32, cfg.MaxFrameSize*dec.Channels()),
		samples:   make([]int16, cfg.MaxFrameSize*dec.Channels()),
		lastFrame: cfg.MaxFrameSize,
	}
	s.rtp.PayloadType = cfg.PayloadType
	obs.StreamOpened()
	return s
}

// ID returns the stream identifier
func (s *Stream) ID() string {
	return s.id
}

// Config returns the effective configuration
func (s *Stream) Config() Config {
	return s.cfg
}

// WriteChunk feeds framed transport bytes
func (s *Stream) WriteChunk(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, packet := range s.parser.Push(chunk) {
		if err := s.decode(packet); err != nil {
			return err
		}
	}
	return nil
}

// WriteRTP feeds one RTP datagram
func (s *Stream) WriteRTP(datagram []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkt, err := s.rtp.Decode(datagram)
	if err != nil {
		s.stats.Dropped++
		return nil
	}

	if pkt.Lost > 0 {
		s.stats.Lost += uint64(pkt.Lost)
		s.obs.PacketsLost(pkt.Lost)
		if err := s.recover(pkt); err != nil {
			return err
		}
	}
	if len(pkt.Payload) == 0 {
		// DTX or keepalive
		return s.conceal(1, s.lastFrame)
	}
	return s.decode(pkt.Payload)
}

// recover fills the gap before pkt. Each lost packet is assumed to last as
// long as pkt, or the last decoded frame when pkt cannot be sized.
func (s *Stream) recover(pkt *transport.RTPPacket) error {
	frames := s.lostFrameSize(pkt.Payload)
	if s.cfg.FEC && pkt.Lost == 1 && len(pkt.Payload) > 0 {
		n, err := s.dec.Decode(pkt.Payload, s.pcm, frames, true)
		if err == nil {
			s.stats.Recovered++
			s.obs.FrameRecovered()
			return s.emit(n)
		}
		// fall back to PLC when the packet carries no usable FEC
	}
	return s.conceal(pkt.Lost, frames)
}

// lostFrameSize returns the samples per channel of next, bounded by MaxFrameSize
func (s *Stream) lostFrameSize(next []byte) int {
	n, err := opusdec.PacketSamples(next, s.dec.SampleRate())
	if err != nil || n <= 0 || n > s.cfg.MaxFrameSize {
		return s.lastFrame
	}
	return n
}

// conceal synthesizes count frames of frames samples per channel
func (s *Stream) conceal(count, frames int) error {
	for range count {
		n, err := s.dec.Conceal(s.pcm, frames)
		if err != nil {
			s.stats.Errors++
			s.obs.DecodeFailed()
			continue
		}
		s.stats.Concealed++
		s.obs.FrameConcealed()
		if err := s.emit(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) decode(packet []byte) error {
	s.stats.Packets++
	s.obs.PacketReceived()

	n, err := s.dec.Decode(packet, s.pcm, s.cfg.MaxFrameSize, false)
	if err != nil {
		s.stats.Errors++
		s.obs.DecodeFailed()
		return nil
	}

	s.lastFrame = n
	s.stats.Decoded++
	s.obs.FrameDecoded()
	return s.emit(n)
}

// emit converts n frames of s.pcm and writes them out
func (s *Stream) emit(frames int) error {
	if s.closed {
		return errors.New("stream closed")
	}
	if !s.opened {
		if err := s.out.Open(s.dec.SampleRate(), s.dec.Channels()); err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
		s.opened = true
	}

	count := audio.Float32ToInt16(s.samples, s.pcm[:frames*s.dec.Channels()])
	if err := s.out.Write(s.samples[:count]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	s.stats.Samples += uint64(frames)
	return nil
}

// Run drains chunks until ctx is done or the channel closes
func (s *Stream) Run(ctx context.Context, chunks <-chan []byte) error {
	write := s.WriteChunk
	if s.cfg.Transport == TransportRTP {
		write = s.WriteRTP
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			if err := write(chunk); err != nil {
				return err
			}
		}
	}
}

// Stats returns a snapshot of the counters
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close closes the output. The decoder is owned by the caller.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.obs.StreamClosed()
	if !s.opened {
		return nil
	}
	return s.out.Close()
}
