//go:build cgo

// ABOUTME: End-to-end server tests through libopus
// ABOUTME: Streams the tone over websocket and RTP and decodes it back
package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sendspin/opushandle/internal/source"
	"github.com/Sendspin/opushandle/pkg/opusdec"
	"github.com/Sendspin/opushandle/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_WebSocketStream(t *testing.T) {
	srv, err := New(Config{SampleRate: 16000, Channels: 1, FrameDuration: 20 * time.Millisecond})
	require.NoError(t, err)

	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := source.NewWebSocket(source.WebSocketConfig{
		ServerAddr: strings.TrimPrefix(httpSrv.URL, "http://"),
		Path:       StreamPath,
	})
	chunks, err := src.Start(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	go srv.Run(ctx)

	dec, err := opusdec.New(16000, 1)
	require.NoError(t, err)
	defer dec.Close()

	parser := transport.NewParser()
	pcm := make([]float32, 320)
	decoded := 0
	timeout := time.After(3 * time.Second)
	for decoded < 5 {
		select {
		case chunk := <-chunks:
			for _, packet := range parser.Push(chunk) {
				n, err := dec.Decode(packet, pcm, 320, false)
				require.NoError(t, err)
				assert.Equal(t, 320, n)
				decoded++
			}
		case <-timeout:
			t.Fatalf("decoded %d packets before timeout", decoded)
		}
	}
	assert.GreaterOrEqual(t, srv.PacketsSent(), uint64(5))
}

func TestServer_RTPStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	udp := source.NewUDP("127.0.0.1:0")
	datagrams, err := udp.Start(ctx)
	require.NoError(t, err)

	srv, err := New(Config{SampleRate: 48000, Channels: 2, RTPTarget: udp.Addr().String()})
	require.NoError(t, err)
	go srv.Run(ctx)

	var depack transport.RTPDepacketizer
	depack.PayloadType = OpusPayloadType

	var last *transport.RTPPacket
	for i := range 4 {
		select {
		case raw := <-datagrams:
			pkt, err := depack.Decode(raw)
			require.NoError(t, err)
			assert.Zero(t, pkt.Lost)
			if last != nil {
				assert.Equal(t, last.SequenceNumber+1, pkt.SequenceNumber)
				assert.Equal(t, last.Timestamp+960, pkt.Timestamp)
				assert.Equal(t, last.SSRC, pkt.SSRC)
			}
			samples, err := opusdec.PacketSamples(pkt.Payload, 48000)
			require.NoError(t, err)
			assert.Equal(t, 960, samples)
			last = pkt
		case <-time.After(2 * time.Second):
			t.Fatalf("no datagram %d", i)
		}
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(Config{SampleRate: 44100, Channels: 1})
	assert.Error(t, err)
}
