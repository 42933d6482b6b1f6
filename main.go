// ABOUTME: Entry point for the opushandle decoder CLI
// ABOUTME: Reads Opus packets from a file, websocket or UDP and plays or records them
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/opushandle/internal/config"
	"github.com/Sendspin/opushandle/internal/discovery"
	"github.com/Sendspin/opushandle/internal/metrics"
	"github.com/Sendspin/opushandle/internal/source"
	"github.com/Sendspin/opushandle/internal/ui"
	"github.com/Sendspin/opushandle/internal/version"
	"github.com/Sendspin/opushandle/pkg/audio/output"
	"github.com/Sendspin/opushandle/pkg/opusdec"
	"github.com/Sendspin/opushandle/pkg/stream"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// raw PCM on stdout leaves no room for the TUI or console logs
	pcmToStdout := cfg.Output == "pcm" && (cfg.Out == "" || cfg.Out == "-")
	useTUI := !cfg.NoTUI && !pcmToStdout

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI || pcmToStdout {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl
	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg tea.Msg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	src, err := newSource(&cfg)
	if err != nil {
		log.Fatalf("Failed to create source: %v", err)
	}

	dec, err := opusdec.New(cfg.SampleRate, cfg.Channels)
	if err != nil {
		log.Fatalf("Failed to create decoder: %v", err)
	}
	defer dec.Close()
	log.Printf("Decoder created: %dHz, %d channels", cfg.SampleRate, cfg.Channels)

	out, err := newOutput(cfg)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}

	s := stream.New(stream.Config{
		MaxFrameSize: cfg.MaxFrameSize,
		FEC:          cfg.FEC,
		Transport:    cfg.Transport,
		Observer:     metrics.Observer{},
	}, dec, out)
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
	}()

	chunks, err := src.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start source: %v", err)
	}

	connected := true
	updateTUI(ui.StatusMsg{
		Connected:    &connected,
		SourceName:   src.Name(),
		StreamID:     s.ID(),
		SampleRate:   cfg.SampleRate,
		Channels:     cfg.Channels,
		MaxFrameSize: cfg.MaxFrameSize,
		Transport:    cfg.Transport,
		FEC:          cfg.FEC,
	})
	log.Printf("Stream %s reading from %s (%s transport)", s.ID(), src.Name(), cfg.Transport)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, chunks)
	}()

	if oto, ok := out.(*output.Oto); ok && volumeCtrl != nil {
		go handleVolumeControl(ctx, oto, volumeCtrl)
	}
	if tuiProg != nil {
		go statsUpdateLoop(ctx, s, updateTUI)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if volumeCtrl != nil {
		quit = volumeCtrl.Quit
	}

	running := true
	select {
	case err := <-done:
		running = false
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Stream stopped: %v", err)
		} else {
			log.Printf("Source finished")
		}
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	}

	cancel()
	if running {
		// the decoder is closed by a deferred call once Run is done with it
		<-done
	}
	if err := src.Err(); err != nil {
		log.Printf("Source error: %v", err)
	}

	stats := s.Stats()
	log.Printf("Decoded %d packets (%d concealed, %d recovered, %d errors, %d lost)",
		stats.Decoded, stats.Concealed, stats.Recovered, stats.Errors, stats.Lost)

	if tuiProg != nil {
		tuiProg.Quit()
	}
}

// newSource builds the packet source, discovering a server when asked
func newSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source {
	case "ws":
		addr, path := cfg.Server, source.DefaultPath
		if cfg.Discover && addr == "" {
			server, err := discoverServer()
			if err != nil {
				return nil, err
			}
			addr, path = server.Addr(), server.Path
			if server.SampleRate > 0 && server.Channels > 0 {
				log.Printf("Using advertised format: %dHz, %d channels", server.SampleRate, server.Channels)
				cfg.SampleRate, cfg.Channels = server.SampleRate, server.Channels
			}
		}
		return source.NewWebSocket(source.WebSocketConfig{ServerAddr: addr, Path: path}), nil
	case "udp":
		return source.NewUDP(cfg.Listen), nil
	default:
		if cfg.Input == "-" {
			return source.NewReader(os.Stdin, "stdin", source.ChunkSize), nil
		}
		file, err := os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		return source.NewReader(file, cfg.Input, source.ChunkSize), nil
	}
}

// discoverServer waits for the first advertised stream server
func discoverServer() (*discovery.ServerInfo, error) {
	log.Printf("Starting server discovery...")
	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()
	if err := disc.Browse(); err != nil {
		return nil, fmt.Errorf("failed to browse: %w", err)
	}

	select {
	case server := <-disc.Servers():
		log.Printf("Discovered server at %s", server.Addr())
		return server, nil
	case <-time.After(10 * time.Second):
		return nil, fmt.Errorf("no server found after 10 seconds")
	}
}

// newOutput builds the PCM sink
func newOutput(cfg config.Config) (output.Output, error) {
	switch cfg.Output {
	case "wav":
		file, err := os.Create(cfg.Out)
		if err != nil {
			return nil, fmt.Errorf("failed to create wav file: %w", err)
		}
		return output.NewWAV(file), nil
	case "pcm":
		if cfg.Out == "" || cfg.Out == "-" {
			return output.NewPCM(os.Stdout), nil
		}
		file, err := os.Create(cfg.Out)
		if err != nil {
			return nil, fmt.Errorf("failed to create pcm file: %w", err)
		}
		return output.NewPCM(file), nil
	default:
		oto := output.NewOto()
		oto.SetVolume(cfg.Volume)
		return oto, nil
	}
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(ctx context.Context, oto *output.Oto, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			oto.SetVolume(vol.Volume)
			oto.SetMuted(vol.Muted)
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with decode statistics
func statsUpdateLoop(ctx context.Context, s *stream.Stream, updateTUI func(tea.Msg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			updateTUI(ui.StatsMsg(s.Stats()))
		case <-ctx.Done():
			return
		}
	}
}
