// ABOUTME: Shared library exporting the decoder handle C ABI
// ABOUTME: Build with -buildmode=c-shared to get libopushandle and its header
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/Sendspin/opushandle/internal/capi"
)

//export opus_decoder_handle_create
func opus_decoder_handle_create(sampleRate, channels C.int) C.uintptr_t {
	return C.uintptr_t(capi.Create(int(sampleRate), int(channels)))
}

//export opus_decoder_handle_decode_float
func opus_decoder_handle_decode_float(h C.uintptr_t, data *C.uint8_t, dataLen C.int, pcm *C.float, maxFrameSize C.int, decodeFEC C.int) C.int {
	return C.int(capi.DecodeFloat(uintptr(h), unsafe.Pointer(data), int(dataLen), unsafe.Pointer(pcm), int(maxFrameSize), decodeFEC != 0))
}

//export opus_decoder_handle_plc_float
func opus_decoder_handle_plc_float(h C.uintptr_t, pcm *C.float, frameSize C.int) C.int {
	return C.int(capi.PLCFloat(uintptr(h), unsafe.Pointer(pcm), int(frameSize)))
}

//export opus_decoder_handle_destroy
func opus_decoder_handle_destroy(h C.uintptr_t) {
	capi.Destroy(uintptr(h))
}

func main() {}
