// ABOUTME: RTP sender for the stream server
// ABOUTME: Packetizes Opus frames per RFC 7587 and sends them over UDP
package server

import (
	"fmt"
	"net"

	"github.com/pion/rtp"
)

// rtpClockRate is the Opus RTP timestamp rate regardless of the coded rate
const rtpClockRate = 48000

// OpusPayloadType is the dynamic payload type used for Opus
const OpusPayloadType = 111

type rtpSender struct {
	conn      net.Conn
	sequencer rtp.Sequencer
	ssrc      uint32
	timestamp uint32
	// tickScale converts coded-rate samples to RTP clock ticks
	tickScale uint32
}

func newRTPSender(target string, sampleRate int, ssrc uint32) (*rtpSender, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rtp target: %w", err)
	}
	return &rtpSender{
		conn:      conn,
		sequencer: rtp.NewRandomSequencer(),
		ssrc:      ssrc,
		tickScale: uint32(rtpClockRate / sampleRate),
	}, nil
}

// send writes one Opus packet covering frames samples per channel
func (r *rtpSender) send(payload []byte, frames int) error {
	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         false,
			PayloadType:    OpusPayloadType,
			SequenceNumber: r.sequencer.NextSequenceNumber(),
			Timestamp:      r.timestamp,
			SSRC:           r.ssrc,
		},
		Payload: payload,
	}
	r.timestamp += uint32(frames) * r.tickScale

	raw, err := pkt.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal rtp packet: %w", err)
	}
	if _, err := r.conn.Write(raw); err != nil {
		return fmt.Errorf("rtp send failed: %w", err)
	}
	return nil
}

func (r *rtpSender) close() error {
	return r.conn.Close()
}
