// ABOUTME: Metrics observer tests
// ABOUTME: Checks that stream events move the prometheus collectors
package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/Sendspin/opushandle/pkg/stream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ stream.Observer = Observer{}

func TestObserver(t *testing.T) {
	before := map[string]float64{
		"packets":   testutil.ToFloat64(PacketsTotal),
		"decoded":   testutil.ToFloat64(DecodedTotal),
		"concealed": testutil.ToFloat64(ConcealedTotal),
		"recovered": testutil.ToFloat64(FECRecoveredTotal),
		"errors":    testutil.ToFloat64(DecodeErrorsTotal),
		"lost":      testutil.ToFloat64(TransportLostTotal),
		"active":    testutil.ToFloat64(ActiveStreams),
	}

	var obs Observer
	obs.StreamOpened()
	obs.PacketReceived()
	obs.PacketReceived()
	obs.FrameDecoded()
	obs.FrameConcealed()
	obs.FrameRecovered()
	obs.DecodeFailed()
	obs.PacketsLost(3)

	assert.Equal(t, before["packets"]+2, testutil.ToFloat64(PacketsTotal))
	assert.Equal(t, before["decoded"]+1, testutil.ToFloat64(DecodedTotal))
	assert.Equal(t, before["concealed"]+1, testutil.ToFloat64(ConcealedTotal))
	assert.Equal(t, before["recovered"]+1, testutil.ToFloat64(FECRecoveredTotal))
	assert.Equal(t, before["errors"]+1, testutil.ToFloat64(DecodeErrorsTotal))
	assert.Equal(t, before["lost"]+3, testutil.ToFloat64(TransportLostTotal))
	assert.Equal(t, before["active"]+1, testutil.ToFloat64(ActiveStreams))

	obs.StreamClosed()
	assert.Equal(t, before["active"], testutil.ToFloat64(ActiveStreams))
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "opushandle_packets_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
