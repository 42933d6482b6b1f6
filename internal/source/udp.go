// ABOUTME: UDP packet source
// ABOUTME: Receives RTP datagrams on a local address
package source

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
)

// maxDatagram bounds one RTP datagram
const maxDatagram = 1500

// UDP receives whole datagrams, one chunk each
type UDP struct {
	result
	listenAddr string
	conn       net.PacketConn
}

// NewUDP creates a UDP source listening on addr
func NewUDP(addr string) *UDP {
	return &UDP{listenAddr: addr}
}

// Name implements Source
func (s *UDP) Name() string {
	return "udp://" + s.listenAddr
}

// Addr returns the bound address once started
func (s *UDP) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Start implements Source
func (s *UDP) Start(ctx context.Context) (<-chan []byte, error) {
	conn, err := net.ListenPacket("udp", s.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen failed: %w", err)
	}
	s.conn = conn
	log.Printf("Listening for RTP on %s", conn.LocalAddr())

	chunks := make(chan []byte, chunkBuffer)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(chunks)
		buf := make([]byte, maxDatagram)
		for {
			n, _, err := conn.ReadFrom(buf)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
					s.set(fmt.Errorf("read failed: %w", err))
				}
				return
			}

			datagram := make([]byte, n)
			copy(datagram, buf[:n])
			select {
			case chunks <- datagram:
			case <-ctx.Done():
				return
			}
		}
	}()
	return chunks, nil
}
