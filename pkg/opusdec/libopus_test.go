//go:build cgo

// ABOUTME: Tests against the real libopus engine
// ABOUTME: Round trip through the encoder, concealment ordering and concurrent streams
package opusdec

import (
	"math"
	"sync"
	"testing"

	"github.com/Sendspin/opushandle/pkg/audio"
	"github.com/Sendspin/opushandle/pkg/audio/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tonePackets encodes count 20ms frames of a 440Hz sine and returns packets and source PCM
func tonePackets(t *testing.T, rate, channels, count int) ([][]byte, []float32) {
	t.Helper()

	enc, err := encode.NewOpus(audio.Format{SampleRate: rate, Channels: channels}, encode.Options{Bitrate: 64000 * channels})
	require.NoError(t, err)
	defer enc.Close()

	frame := rate / 50
	var packets [][]byte
	var source []float32
	for f := 0; f < count; f++ {
		pcm := make([]float32, frame*channels)
		for i := 0; i < frame; i++ {
			s := float32(0.5 * math.Sin(2*math.Pi*440*float64(f*frame+i)/float64(rate)))
			for c := 0; c < channels; c++ {
				pcm[i*channels+c] = s
			}
		}
		pkt, err := enc.EncodeFloat(pcm)
		require.NoError(t, err)
		packets = append(packets, pkt)
		source = append(source, pcm...)
	}
	return packets, source
}

func energy(pcm []float32) float64 {
	var sum float64
	for _, s := range pcm {
		sum += float64(s) * float64(s)
	}
	return sum
}

func TestLibopus_ConstructAcceptedConfigs(t *testing.T) {
	for _, rate := range []int{8000, 12000, 16000, 24000, 48000} {
		for _, channels := range []int{1, 2} {
			dec, err := New(rate, channels)
			require.NoError(t, err, "%dHz %dch", rate, channels)
			require.NotNil(t, dec)
			assert.NoError(t, dec.Close())
		}
	}
}

func TestLibopus_ConstructRejectedConfigs(t *testing.T) {
	dec, err := New(44100, 2)
	assert.Nil(t, dec)
	assert.Equal(t, int(ErrBadArg), Code(err))

	dec, err = New(48000, 3)
	assert.Nil(t, dec)
	assert.Equal(t, int(ErrBadArg), Code(err))
}

func TestLibopus_RoundTrip(t *testing.T) {
	const rate, frame = 48000, 960
	packets, source := tonePackets(t, rate, 1, 10)

	dec, err := New(rate, 1)
	require.NoError(t, err)
	defer dec.Close()

	var decoded []float32
	pcm := make([]float32, MaxFrameSize)
	for _, pkt := range packets {
		n, err := dec.Decode(pkt, pcm, MaxFrameSize, false)
		require.NoError(t, err)
		require.Equal(t, frame, n)
		decoded = append(decoded, pcm[:n]...)
	}

	// Opus delays its output by the encoder lookahead; find the best alignment
	// over the second half of the stream and check the residual error.
	start := len(source) / 2
	span := len(source) - start - 1000
	best := math.MaxFloat64
	for lag := 0; lag < 1000; lag++ {
		var sum float64
		for i := 0; i < span; i++ {
			d := float64(decoded[start+lag+i] - source[start+i])
			sum += d * d
		}
		best = math.Min(best, math.Sqrt(sum/float64(span)))
	}
	assert.Less(t, best, 0.15, "decoded tone outside quantization tolerance")
}

func TestLibopus_ConcealFreshDecoder(t *testing.T) {
	dec, err := New(16000, 1)
	require.NoError(t, err)
	defer dec.Close()

	pcm := make([]float32, 320)
	n, err := dec.Conceal(pcm, 320)
	require.NoError(t, err)
	assert.Equal(t, 320, n)
}

func TestLibopus_DecodeConcealDecode(t *testing.T) {
	const rate, frame = 48000, 960
	packets, _ := tonePackets(t, rate, 1, 4)

	fresh, err := New(rate, 1)
	require.NoError(t, err)
	defer fresh.Close()
	freshPLC := make([]float32, frame)
	_, err = fresh.Conceal(freshPLC, frame)
	require.NoError(t, err)

	dec, err := New(rate, 1)
	require.NoError(t, err)
	defer dec.Close()

	pcm := make([]float32, frame)
	for _, pkt := range packets[:2] {
		_, err = dec.Decode(pkt, pcm, frame, false)
		require.NoError(t, err)
	}

	plc := make([]float32, frame)
	n, err := dec.Conceal(plc, frame)
	require.NoError(t, err)
	assert.Equal(t, frame, n)
	assert.Greater(t, energy(plc), energy(freshPLC), "concealment should continue the decoded tone")

	n, err = dec.Decode(packets[3], pcm, frame, false)
	require.NoError(t, err)
	assert.Equal(t, frame, n)
}

func TestLibopus_CorruptPacket(t *testing.T) {
	dec, err := New(48000, 1)
	require.NoError(t, err)
	defer dec.Close()

	// code 3 packet declaring 0 frames is invalid
	pcm := make([]float32, MaxFrameSize)
	_, err = dec.Decode([]byte{0xfb, 0x00}, pcm, MaxFrameSize, false)
	require.Error(t, err)
	assert.Less(t, Code(err), 0)
}

func TestLibopus_BufferTooSmall(t *testing.T) {
	packets, _ := tonePackets(t, 48000, 1, 1)

	dec, err := New(48000, 1)
	require.NoError(t, err)
	defer dec.Close()

	// a 20ms packet does not fit in 10ms
	pcm := make([]float32, 480)
	_, err = dec.Decode(packets[0], pcm, 480, false)
	assert.Equal(t, int(ErrBufferTooSmall), Code(err))
}

func TestLibopus_ConcurrentMatchesSequential(t *testing.T) {
	packets, _ := tonePackets(t, 48000, 2, 8)

	run := func() ([]float32, error) {
		dec, err := New(48000, 2)
		if err != nil {
			return nil, err
		}
		defer dec.Close()

		var out []float32
		pcm := make([]float32, MaxFrameSize*2)
		for i, pkt := range packets {
			var n int
			if i == 4 {
				n, err = dec.Conceal(pcm, 960)
			} else {
				n, err = dec.Decode(pkt, pcm, MaxFrameSize, false)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, pcm[:n*2]...)
		}
		return out, nil
	}

	want, err := run()
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float32, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = run()
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}
