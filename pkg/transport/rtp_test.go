// ABOUTME: Tests for the RTP depacketizer
// ABOUTME: Covers loss counting, wraparound, late packets and payload filtering
package transport

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rtpPacket(seq uint16, payload ...byte) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: seq,
			Timestamp:      uint32(seq) * 960,
			SSRC:           0x1234,
		},
		Payload: payload,
	}
}

func TestRTPDepacketizer_Sequence(t *testing.T) {
	tests := []struct {
		name string
		seqs []uint16
		lost []int
	}{
		{"in order", []uint16{10, 11, 12}, []int{0, 0, 0}},
		{"single gap", []uint16{10, 11, 13}, []int{0, 0, 1}},
		{"burst gap", []uint16{10, 15}, []int{0, 4}},
		{"wraparound", []uint16{65534, 65535, 0, 2}, []int{0, 0, 0, 1}},
		{"large jump resyncs", []uint16{10, 5000, 5001}, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d RTPDepacketizer
			for i, seq := range tt.seqs {
				out, err := d.Depacketize(rtpPacket(seq, 0xfc))
				require.NoError(t, err)
				assert.Equal(t, tt.lost[i], out.Lost, "seq %d", seq)
				assert.Equal(t, seq, out.SequenceNumber)
			}
		})
	}
}

func TestRTPDepacketizer_LatePacket(t *testing.T) {
	var d RTPDepacketizer
	_, err := d.Depacketize(rtpPacket(100))
	require.NoError(t, err)
	_, err = d.Depacketize(rtpPacket(101))
	require.NoError(t, err)

	_, err = d.Depacketize(rtpPacket(101))
	assert.ErrorIs(t, err, ErrLatePacket)
	_, err = d.Depacketize(rtpPacket(99))
	assert.ErrorIs(t, err, ErrLatePacket)

	out, err := d.Depacketize(rtpPacket(102))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Lost)
}

func TestRTPDepacketizer_NewSSRCResets(t *testing.T) {
	var d RTPDepacketizer
	_, err := d.Depacketize(rtpPacket(100))
	require.NoError(t, err)

	pkt := rtpPacket(7)
	pkt.SSRC = 0x9999
	out, err := d.Depacketize(pkt)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Lost)
}

func TestRTPDepacketizer_PayloadType(t *testing.T) {
	d := RTPDepacketizer{PayloadType: 96}
	_, err := d.Depacketize(rtpPacket(1))
	assert.ErrorIs(t, err, ErrPayloadType)
}

func TestRTPDepacketizer_DecodeRaw(t *testing.T) {
	raw, err := rtpPacket(42, 1, 2, 3).Marshal()
	require.NoError(t, err)

	var d RTPDepacketizer
	out, err := d.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, out.Payload)
	assert.Equal(t, uint32(42*960), out.Timestamp)

	_, err = d.Decode([]byte{0x80})
	assert.Error(t, err)
}
