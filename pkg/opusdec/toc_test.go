// ABOUTME: Tests for Opus TOC inspection
// ABOUTME: Checks frame sizes per mode and packet sample counts
package opusdec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationSamplesPerFrame(t *testing.T) {
	tests := []struct {
		name   string
		config Configuration
		rate   int
		want   int
	}{
		{"silk nb 10ms", 0, 48000, 480},
		{"silk wb 20ms", 9, 16000, 320},
		{"silk wb 60ms", 11, 16000, 960},
		{"silk mb 40ms", 6, 8000, 320},
		{"hybrid swb 10ms", 12, 48000, 480},
		{"hybrid fb 20ms", 15, 48000, 960},
		{"celt nb 2.5ms", 16, 48000, 120},
		{"celt fb 20ms", 31, 48000, 960},
		{"celt wb 5ms", 21, 16000, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.SamplesPerFrame(tt.rate))
		})
	}
}

func TestTOCFields(t *testing.T) {
	toc := TOC(0b01001_1_10) // config 9, stereo, two different frames
	assert.Equal(t, Configuration(9), toc.Configuration())
	assert.True(t, toc.IsStereo())
	assert.Equal(t, TwoDifferentFrames, toc.FrameCode())
	assert.Equal(t, Silk, toc.Configuration().Mode())
	assert.Contains(t, toc.String(), "mode=SILK")
}

func TestPacketSamples(t *testing.T) {
	// config 9 (SILK WB 20ms), one frame
	n, err := PacketSamples([]byte{9 << 3, 0xaa}, 16000)
	require.NoError(t, err)
	assert.Equal(t, 320, n)

	// two frames
	n, err = PacketSamples([]byte{9<<3 | 1, 0xaa}, 16000)
	require.NoError(t, err)
	assert.Equal(t, 640, n)

	// code 3 with 3 frames of 20ms
	n, err = PacketSamples([]byte{9<<3 | 3, 3}, 16000)
	require.NoError(t, err)
	assert.Equal(t, 960, n)
}

func TestPacketSamples_Invalid(t *testing.T) {
	_, err := PacketSamples(nil, 16000)
	assert.ErrorIs(t, err, ErrInvalidPacket)
	assert.Equal(t, int(ErrInvalidPacket), Code(err))

	_, err = PacketFrames([]byte{})
	assert.ErrorIs(t, err, ErrInvalidPacket)

	// code 3 with a zero frame count
	_, err = PacketFrames([]byte{9<<3 | 3, 0})
	assert.ErrorIs(t, err, ErrInvalidPacket)
	_, err = PacketSamples([]byte{9<<3 | 3, 0x80}, 16000)
	assert.ErrorIs(t, err, ErrInvalidPacket)

	// code 3 without the frame count byte
	_, err = PacketSamples([]byte{9<<3 | 3}, 16000)
	assert.ErrorIs(t, err, ErrInvalidPacket)

	// 7 x 20ms = 140ms exceeds the 120ms limit
	_, err = PacketSamples([]byte{9<<3 | 3, 7}, 16000)
	assert.ErrorIs(t, err, ErrInvalidPacket)
}
