// ABOUTME: Prometheus metrics for decode streams
// ABOUTME: Package-level collectors plus a stream.Observer that feeds them
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gauges
var (
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "opushandle_active_streams",
		Help: "Number of streams currently decoding",
	})
)

// Counters
var (
	PacketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opushandle_packets_total",
		Help: "Total Opus packets received",
	})
	DecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opushandle_decoded_frames_total",
		Help: "Total frames decoded from packets",
	})
	ConcealedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opushandle_concealed_frames_total",
		Help: "Total frames synthesized by packet loss concealment",
	})
	FECRecoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opushandle_fec_recovered_frames_total",
		Help: "Total frames recovered from in-band FEC",
	})
	DecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opushandle_decode_errors_total",
		Help: "Total Opus decode failures",
	})
	TransportLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opushandle_transport_lost_packets_total",
		Help: "Total packets missing from the RTP sequence",
	})
)

// Observer records stream events into the package collectors
type Observer struct{}

func (Observer) StreamOpened()     { ActiveStreams.Inc() }
func (Observer) StreamClosed()     { ActiveStreams.Dec() }
func (Observer) PacketReceived()   { PacketsTotal.Inc() }
func (Observer) FrameDecoded()     { DecodedTotal.Inc() }
func (Observer) FrameConcealed()   { ConcealedTotal.Inc() }
func (Observer) FrameRecovered()   { FECRecoveredTotal.Inc() }
func (Observer) DecodeFailed()     { DecodeErrorsTotal.Inc() }
func (Observer) PacketsLost(n int) { TransportLostTotal.Add(float64(n)) }

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
