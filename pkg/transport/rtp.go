// ABOUTME: RTP depacketizer for Opus (RFC 7587)
// ABOUTME: Extracts payloads and counts packets lost between sequence numbers
package transport

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
)

// maxSequenceGap is the largest forward jump treated as loss; anything larger is a resync
const maxSequenceGap = 1000

// ErrLatePacket is returned for duplicates and packets older than the last one accepted
var ErrLatePacket = errors.New("transport: late or duplicate rtp packet")

// ErrPayloadType is returned when a packet does not carry the expected payload type
var ErrPayloadType = errors.New("transport: unexpected rtp payload type")

// RTPPacket is one depacketized Opus packet
type RTPPacket struct {
	Payload        []byte
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	// Lost is the number of packets missing immediately before this one
	Lost int
}

// RTPDepacketizer tracks one RTP stream. It is not safe for concurrent use.
type RTPDepacketizer struct {
	// PayloadType filters packets when non-zero
	PayloadType uint8

	started  bool
	ssrc     uint32
	expected uint16
}

// Decode parses raw into an RTPPacket
func (d *RTPDepacketizer) Decode(raw []byte) (*RTPPacket, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("failed to parse rtp packet: %w", err)
	}
	return d.Depacketize(&pkt)
}

// Depacketize extracts the Opus payload of pkt and computes the loss before it
func (d *RTPDepacketizer) Depacketize(pkt *rtp.Packet) (*RTPPacket, error) {
	if d.PayloadType != 0 && pkt.PayloadType != d.PayloadType {
		return nil, fmt.Errorf("%w: %d", ErrPayloadType, pkt.PayloadType)
	}

	lost := 0
	switch {
	case !d.started || pkt.SSRC != d.ssrc:
		d.started = true
		d.ssrc = pkt.SSRC
	default:
		gap := pkt.SequenceNumber - d.expected // wraps
		switch {
		case gap == 0:
		case gap < maxSequenceGap:
			lost = int(gap)
		case gap > 0xffff-maxSequenceGap:
			return nil, ErrLatePacket
		default:
			// too far ahead to be loss, treat as a restart
		}
	}
	d.expected = pkt.SequenceNumber + 1

	return &RTPPacket{
		Payload:        pkt.Payload,
		SequenceNumber: pkt.SequenceNumber,
		Timestamp:      pkt.Timestamp,
		SSRC:           pkt.SSRC,
		Lost:           lost,
	}, nil
}

// Reset forgets the stream position
func (d *RTPDepacketizer) Reset() {
	d.started = false
}
