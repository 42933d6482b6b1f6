// ABOUTME: Decoding engine abstraction
// ABOUTME: Capability set the Decoder needs from an Opus implementation
package opusdec

// Engine creates per-stream decoder state
type Engine interface {
	// NewStream allocates a decoder for sampleRate and channels.
	// On error any partially allocated stream may be returned and will be closed by the caller.
	NewStream(sampleRate, channels int) (Stream, error)
}

// Stream is one engine decoder instance. Streams are not safe for concurrent use.
type Stream interface {
	// DecodeFloat decodes packet into pcm, which holds exactly frameSize*channels samples.
	// An empty packet requests concealment of len(pcm)/channels samples per channel.
	// Returns decoded samples per channel or an Error.
	DecodeFloat(packet []byte, pcm []float32, fec bool) (int, error)

	// Close releases engine state
	Close() error
}

// EngineFunc adapts a plain constructor to Engine
type EngineFunc func(sampleRate, channels int) (Stream, error)

// NewStream calls f
func (f EngineFunc) NewStream(sampleRate, channels int) (Stream, error) {
	return f(sampleRate, channels)
}
