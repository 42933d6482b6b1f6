// ABOUTME: Entry point for the Opus tone stream server
// ABOUTME: Parses CLI flags and streams an encoded test tone over WebSocket and RTP
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/opushandle/internal/server"
)

var (
	port       = flag.Int("port", 8927, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-opus-tone)")
	logFile    = flag.String("log-file", "opus-tone-server.log", "Log file path")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	sampleRate = flag.Int("rate", 16000, "Encoder sample rate")
	channels   = flag.Int("channels", 1, "Encoder channel count")
	frameMs    = flag.Int("frame-ms", 20, "Frame duration in milliseconds")
	frequency  = flag.Float64("freq", server.DefaultFrequency, "Tone frequency in Hz")
	bitrate    = flag.Int("bitrate", 0, "Opus bitrate in bits per second (default 32kbps per channel)")
	fec        = flag.Bool("fec", false, "Enable in-band FEC")
	lossPerc   = flag.Int("loss-perc", 10, "Expected packet loss percentage for FEC")
	rtpTarget  = flag.String("rtp", "", "Also send RTP to this host:port")
)

func main() {
	flag.Parse()
	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-opus-tone", hostname)
	}

	log.Printf("Starting Opus tone server: %s on port %d", serverName, *port)
	log.Printf("Logging to: %s", *logFile)

	srv, err := server.New(server.Config{
		Port:           *port,
		Name:           serverName,
		EnableMDNS:     !*noMDNS,
		UseTUI:         useTUI,
		SampleRate:     *sampleRate,
		Channels:       *channels,
		FrameDuration:  time.Duration(*frameMs) * time.Millisecond,
		Frequency:      *frequency,
		Bitrate:        *bitrate,
		FEC:            *fec,
		PacketLossPerc: *lossPerc,
		RTPTarget:      *rtpTarget,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
