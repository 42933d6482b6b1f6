// ABOUTME: WebSocket packet source
// ABOUTME: Dials an opus server and forwards binary messages as chunks
package source

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// DefaultPath is the websocket endpoint served by opus-tone-server
const DefaultPath = "/opus"

// WebSocketConfig holds websocket source configuration
type WebSocketConfig struct {
	ServerAddr string
	Path       string
}

// WebSocket reads framed transport bytes from a websocket server
type WebSocket struct {
	result
	config WebSocketConfig

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocket creates a websocket source
func NewWebSocket(config WebSocketConfig) *WebSocket {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	return &WebSocket{config: config}
}

func (s *WebSocket) url() string {
	u := url.URL{Scheme: "ws", Host: s.config.ServerAddr, Path: s.config.Path}
	return u.String()
}

// Name implements Source
func (s *WebSocket) Name() string {
	return s.url()
}

// Start implements Source
func (s *WebSocket) Start(ctx context.Context) (<-chan []byte, error) {
	log.Printf("Connecting to %s", s.url())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	chunks := make(chan []byte, chunkBuffer)
	go func() {
		<-ctx.Done()
		s.close()
	}()
	go s.readMessages(ctx, conn, chunks)
	return chunks, nil
}

// readMessages forwards binary messages until the connection ends
func (s *WebSocket) readMessages(ctx context.Context, conn *websocket.Conn, chunks chan<- []byte) {
	defer close(chunks)
	defer s.close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.set(fmt.Errorf("read failed: %w", err))
			return
		}

		if messageType != websocket.BinaryMessage {
			log.Printf("Ignoring non-binary websocket message (%d bytes)", len(data))
			continue
		}

		select {
		case chunks <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *WebSocket) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
