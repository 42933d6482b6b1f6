// ABOUTME: Stream pipeline package
// ABOUTME: Turns transport chunks into decoded PCM written to an output sink
// Package stream drives one decoder from a transport to an output.
//
// A Stream accepts either framed chunks (see transport.Parser) or RTP
// datagrams. Each Opus packet is decoded to float PCM, converted to int16,
// and written to the output. With RTP, packets missing from the sequence are
// concealed, or recovered from in-band FEC when exactly one is missing.
//
// Decode failures are counted and the packet is skipped. Only output errors
// stop a stream.
package stream
