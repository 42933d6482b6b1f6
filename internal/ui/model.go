// ABOUTME: Bubbletea model for the decoder TUI
// ABOUTME: Shows source, format and decode statistics
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sendspin/opushandle/pkg/stream"
	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Source
	connected  bool
	sourceName string
	streamID   string

	// Format
	sampleRate   int
	channels     int
	maxFrameSize int
	transport    string
	fec          bool

	// Playback
	volume     int
	muted      bool
	volumeCtrl *VolumeControl

	// Stats
	stats stream.Stats

	showDebug bool

	width  int
	height int
}

// StatusMsg updates source and format state
type StatusMsg struct {
	Connected    *bool
	SourceName   string
	StreamID     string
	SampleRate   int
	Channels     int
	MaxFrameSize int
	Transport    string
	FEC          bool
}

// StatsMsg carries a periodic stream stats snapshot
type StatsMsg stream.Stats

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case StatsMsg:
		m.stats = stream.Stats(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderFormat())
	b.WriteString(m.renderStats())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	status := "Waiting for source"
	if m.connected {
		status = "Receiving from " + truncate(m.sourceName, 30)
	}

	return fmt.Sprintf(`┌─ Opus Decoder ───────────────────────────────────────┐
│ Status: %-44s │
├──────────────────────────────────────────────────────┤
`, status)
}

func (m Model) renderFormat() string {
	if m.sampleRate == 0 {
		return "│ No decoder                                           │\n"
	}

	fec := "off"
	if m.fec {
		fec = "on"
	}

	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	return fmt.Sprintf("│ Format:    Opus %dHz %-6s max frame %-5d%-9s │\n"+
		"│ Transport: %-6s FEC: %-3s%-28s │\n"+
		"│ Volume:    [%s] %3d%%%-8s%-13s │\n",
		m.sampleRate, channelName(m.channels), m.maxFrameSize, "",
		m.transport, fec, "",
		renderBar(m.volume, 100, 10), m.volume, muteIcon, "")
}

func (m Model) renderStats() string {
	decoded := time.Duration(0)
	if m.sampleRate > 0 {
		decoded = time.Duration(m.stats.Samples) * time.Second / time.Duration(m.sampleRate)
	}

	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Packets: %-8d Decoded: %-8d Errors: %-8d │
│ PLC:     %-8d FEC:     %-8d Lost:   %-8d │
│ Dropped: %-8d Audio:   %-25s │
`, m.stats.Packets, m.stats.Decoded, m.stats.Errors,
		m.stats.Concealed, m.stats.Recovered, m.stats.Lost,
		m.stats.Dropped, decoded.Truncate(time.Millisecond))
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

func (m Model) renderDebug() string {
	return fmt.Sprintf("│ DEBUG: stream %-39s │\n", truncate(m.streamID, 39))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.sendVolume()
	case "down":
		m.volume = max(m.volume-5, 0)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// sendVolume notifies the audio side without blocking the UI
func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.SourceName != "" {
		m.sourceName = msg.SourceName
	}
	if msg.StreamID != "" {
		m.streamID = msg.StreamID
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.maxFrameSize = msg.MaxFrameSize
		m.transport = msg.Transport
		m.fec = msg.FEC
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
