// ABOUTME: Opus packet transports
// ABOUTME: Length-prefixed stream framing and RTP depacketization
// Package transport recovers individual Opus packets from the byte streams
// they arrive on.
//
// Parser handles the length-prefixed framing used by wearable audio links:
// every packet is preceded by an 8-byte header whose first four bytes hold the
// payload length, big- or little-endian. Chunks may split or join frames
// arbitrarily and the parser resynchronizes byte by byte on garbage.
//
// RTPDepacketizer handles Opus over RTP (RFC 7587) and reports how many packets
// went missing so the caller can conceal them.
package transport
