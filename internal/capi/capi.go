// ABOUTME: C-callable decoder handle functions over raw pointers
// ABOUTME: Maps integer handles to decoders and returns libopus-style int codes
package capi

import (
	"log"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/Sendspin/opushandle/pkg/opusdec"
)

// newDecoder is swapped in tests
var newDecoder = opusdec.New

var (
	handles sync.Map // uintptr -> *opusdec.Decoder
	nextID  atomic.Uintptr
)

const badArg = int(opusdec.ErrBadArg)

// Create returns a handle for a new decoder, or 0 on failure
func Create(sampleRate, channels int) uintptr {
	dec, err := newDecoder(sampleRate, channels)
	if err != nil {
		log.Printf("Decoder create failed (%dHz, %d channels): %v", sampleRate, channels, err)
		return 0
	}

	h := nextID.Add(1)
	handles.Store(h, dec)
	return h
}

func lookup(h uintptr) *opusdec.Decoder {
	if h == 0 {
		return nil
	}
	v, ok := handles.Load(h)
	if !ok {
		return nil
	}
	return v.(*opusdec.Decoder)
}

// DecodeFloat decodes dataLen bytes at data into pcm, which must hold
// maxFrameSize*channels floats. A nil data pointer requests concealment.
// Returns samples per channel or a negative libopus code.
func DecodeFloat(h uintptr, data unsafe.Pointer, dataLen int, pcm unsafe.Pointer, maxFrameSize int, fec bool) int {
	dec := lookup(h)
	if dec == nil || pcm == nil || maxFrameSize <= 0 || dataLen < 0 {
		return badArg
	}

	var packet []byte
	if data != nil && dataLen > 0 {
		packet = unsafe.Slice((*byte)(data), dataLen)
	}
	out := unsafe.Slice((*float32)(pcm), maxFrameSize*dec.Channels())

	n, err := dec.Decode(packet, out, maxFrameSize, fec)
	if err != nil {
		return opusdec.Code(err)
	}
	return n
}

// PLCFloat writes one concealment frame of frameSize samples per channel into pcm
func PLCFloat(h uintptr, pcm unsafe.Pointer, frameSize int) int {
	dec := lookup(h)
	if dec == nil || pcm == nil || frameSize <= 0 {
		return badArg
	}

	out := unsafe.Slice((*float32)(pcm), frameSize*dec.Channels())
	n, err := dec.Conceal(out, frameSize)
	if err != nil {
		return opusdec.Code(err)
	}
	return n
}

// Destroy releases the decoder behind h. Unknown handles and 0 are ignored.
func Destroy(h uintptr) {
	if h == 0 {
		return
	}
	v, ok := handles.LoadAndDelete(h)
	if !ok {
		return
	}
	_ = v.(*opusdec.Decoder).Close()
}

// Live returns the number of undestroyed handles
func Live() int {
	n := 0
	handles.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
