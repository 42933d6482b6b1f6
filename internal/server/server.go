// ABOUTME: Opus tone stream server
// ABOUTME: Encodes a test tone and streams framed packets over WebSocket and RTP
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sendspin/opushandle/internal/discovery"
	"github.com/Sendspin/opushandle/pkg/audio"
	"github.com/Sendspin/opushandle/pkg/audio/encode"
	"github.com/Sendspin/opushandle/pkg/transport"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// StreamPath is the websocket endpoint
const StreamPath = "/opus"

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	UseTUI     bool

	SampleRate    int
	Channels      int
	FrameDuration time.Duration
	Frequency     float64

	Bitrate        int
	FEC            bool
	PacketLossPerc int

	// RTPTarget receives the same packets as RTP over UDP when set
	RTPTarget string
}

// Server streams an encoded tone to websocket clients
type Server struct {
	config   Config
	serverID string

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*client
	clientsMu sync.RWMutex

	tone      *ToneSource
	encoder   *encode.OpusEncoder
	frames    int
	rtp       *rtpSender
	packets   atomic.Uint64
	startTime time.Time

	mdnsManager *discovery.Manager
	tui         *ServerTUI

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// client is one connected websocket receiver
type client struct {
	id       string
	addr     string
	conn     *websocket.Conn
	sendChan chan []byte
}

// New creates a server and its encoder
func New(config Config) (*Server, error) {
	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}
	if config.Channels == 0 {
		config.Channels = 1
	}
	if config.FrameDuration == 0 {
		config.FrameDuration = 20 * time.Millisecond
	}

	format := audio.Format{SampleRate: config.SampleRate, Channels: config.Channels}
	encoder, err := encode.NewOpus(format, encode.Options{
		Bitrate:        config.Bitrate,
		FEC:            config.FEC,
		PacketLossPerc: config.PacketLossPerc,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// trusted local network only
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[string]*client),
		tone:      NewToneSource(format, config.Frequency),
		encoder:   encoder,
		frames:    format.FramesPer(config.FrameDuration),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}
	s.mux.HandleFunc(StreamPath, s.handleWebSocket)
	return s, nil
}

// Handler returns the HTTP handler serving StreamPath
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the server until Stop, a TUI quit, or an HTTP error
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tui.Start(s.config.Name, s.config.Port)
		}()
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        StreamPath,
			SampleRate:  s.config.SampleRate,
			Channels:    s.config.Channels,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Audio engine stopped: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, StreamPath)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	if s.tui != nil {
		s.tui.Stop()
	}
	cancel()
	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Run encodes one frame per FrameDuration and fans it out until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if s.config.RTPTarget != "" {
		sender, err := newRTPSender(s.config.RTPTarget, s.config.SampleRate, uuid.New().ID())
		if err != nil {
			return err
		}
		defer sender.close()
		s.rtp = sender
		log.Printf("Sending RTP to %s", s.config.RTPTarget)
	}

	log.Printf("Audio engine starting: %dHz, %d channels, %v frames",
		s.config.SampleRate, s.config.Channels, s.config.FrameDuration)

	ticker := time.NewTicker(s.config.FrameDuration)
	defer ticker.Stop()
	statusTicker := time.NewTicker(time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Audio engine stopping")
			return ctx.Err()
		case <-statusTicker.C:
			s.updateTUI()
		case <-ticker.C:
			if err := s.sendFrame(); err != nil {
				return err
			}
		}
	}
}

// nextPacket encodes the next tone frame
func (s *Server) nextPacket() ([]byte, error) {
	samples := make([]int16, s.frames*s.config.Channels)
	s.tone.Read(samples)
	return s.encoder.Encode(samples)
}

// sendFrame encodes one frame and delivers it to every receiver
func (s *Server) sendFrame() error {
	packet, err := s.nextPacket()
	if err != nil {
		return err
	}

	framed, err := transport.AppendFrame(nil, packet)
	if err != nil {
		return err
	}
	s.packets.Add(1)

	s.clientsMu.RLock()
	for _, c := range s.clients {
		select {
		case c.sendChan <- framed:
		default:
			log.Printf("Dropping frame for %s (send buffer full)", c.addr)
		}
	}
	s.clientsMu.RUnlock()

	if s.rtp != nil {
		if err := s.rtp.send(packet, s.frames); err != nil {
			log.Printf("RTP send error: %v", err)
		}
	}
	return nil
}

// handleWebSocket registers a receiver and streams to it until it disconnects
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		id:       uuid.New().String(),
		addr:     r.RemoteAddr,
		conn:     conn,
		sendChan: make(chan []byte, 100),
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()
	log.Printf("Client connected: %s", c.addr)
	s.updateTUI()

	done := make(chan struct{})
	go s.clientWriter(c, done)

	// reads only detect the close; receivers send nothing
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, c.id)
	s.clientsMu.Unlock()
	close(done)
	log.Printf("Client disconnected: %s", c.addr)
	s.updateTUI()
}

// clientWriter owns all writes to c.conn
func (s *Server) clientWriter(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case frame := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Printf("Error writing to %s: %v", c.addr, err)
				return
			}
		}
	}
}

// Clients returns the number of connected receivers
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// PacketsSent returns the number of frames encoded
func (s *Server) PacketsSent() uint64 {
	return s.packets.Load()
}
