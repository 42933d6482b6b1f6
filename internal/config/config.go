// ABOUTME: CLI configuration from flags and an optional YAML file
// ABOUTME: File values load first and explicitly set flags override them
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the opushandle CLI settings
type Config struct {
	Source   string `yaml:"source"`   // file, ws or udp
	Input    string `yaml:"input"`    // file path, "-" for stdin
	Server   string `yaml:"server"`   // websocket host:port
	Listen   string `yaml:"listen"`   // udp listen address
	Discover bool   `yaml:"discover"` // find a websocket server over mDNS

	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	MaxFrameSize int    `yaml:"max_frame_size"`
	FEC          bool   `yaml:"fec"`
	Transport    string `yaml:"transport"` // framed or rtp

	Output string `yaml:"output"` // speaker, wav or pcm
	Out    string `yaml:"out"`    // output file, "-" for stdout
	Volume int    `yaml:"volume"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogFile     string `yaml:"log_file"`
	NoTUI       bool   `yaml:"no_tui"`
}

// Default returns the settings of the original device path: 16kHz mono, 20ms frames
func Default() Config {
	return Config{
		Source:       "file",
		Input:        "-",
		Listen:       ":5004",
		SampleRate:   16000,
		Channels:     1,
		MaxFrameSize: 320,
		Transport:    "framed",
		Output:       "speaker",
		Volume:       100,
		LogFile:      "opushandle.log",
	}
}

// RegisterFlags binds the fields to fs using the current values as defaults
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Source, "source", c.Source, "Packet source: file, ws or udp")
	fs.StringVar(&c.Input, "input", c.Input, "Input file for -source file (- for stdin)")
	fs.StringVar(&c.Server, "server", c.Server, "WebSocket server address (host:port)")
	fs.StringVar(&c.Listen, "listen", c.Listen, "UDP listen address for -source udp")
	fs.BoolVar(&c.Discover, "discover", c.Discover, "Discover a websocket server via mDNS")
	fs.IntVar(&c.SampleRate, "rate", c.SampleRate, "Decoder sample rate")
	fs.IntVar(&c.Channels, "channels", c.Channels, "Decoder channel count")
	fs.IntVar(&c.MaxFrameSize, "max-frame", c.MaxFrameSize, "Maximum frame size in samples per channel")
	fs.BoolVar(&c.FEC, "fec", c.FEC, "Recover single lost RTP packets from in-band FEC")
	fs.StringVar(&c.Transport, "transport", c.Transport, "Packet transport: framed or rtp")
	fs.StringVar(&c.Output, "output", c.Output, "Output sink: speaker, wav or pcm")
	fs.StringVar(&c.Out, "out", c.Out, "Output file for wav/pcm (- for stdout)")
	fs.IntVar(&c.Volume, "volume", c.Volume, "Speaker volume (0-100)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path")
	fs.BoolVar(&c.NoTUI, "no-tui", c.NoTUI, "Disable TUI and stream logs to stdout")
}

// Parse reads args into a Config. A -config file is applied over the
// defaults, then flags given on the command line win.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()
	var path string
	fs.StringVar(&path, "config", "", "YAML config file")
	cfg.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := cfg.loadFile(path); err != nil {
		return cfg, err
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return cfg, fmt.Errorf("failed to reapply -%s: %w", name, err)
		}
	}
	return cfg, cfg.Validate()
}

// loadFile unmarshals path over the current values
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated settings. Rate and channel support is left to the decoder.
func (c Config) Validate() error {
	switch c.Source {
	case "file", "ws", "udp":
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	switch c.Transport {
	case "framed", "rtp":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Output {
	case "speaker", "pcm":
	case "wav":
		if c.Out == "" || c.Out == "-" {
			return fmt.Errorf("wav output needs a file (-out)")
		}
	default:
		return fmt.Errorf("unknown output %q", c.Output)
	}
	if c.Source == "ws" && c.Server == "" && !c.Discover {
		return fmt.Errorf("ws source needs -server or -discover")
	}
	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("max frame size must be positive, got %d", c.MaxFrameSize)
	}
	return nil
}
