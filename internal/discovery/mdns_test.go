// ABOUTME: Tests for mDNS discovery
// ABOUTME: Covers TXT record rendering and browse entry parsing
package discovery

import (
	"net"
	"testing"

	"github.com/Sendspin/opushandle/internal/version"
	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Tone", Port: 8927})
	require.NotNil(t, mgr)
	assert.Equal(t, DefaultPath, mgr.config.Path)
	assert.NotNil(t, mgr.Servers())
	mgr.Stop()
}

func TestTXTRecords(t *testing.T) {
	ident := []string{
		"product=" + version.Product,
		"version=" + version.Version,
		"manufacturer=" + version.Manufacturer,
	}

	cfg := Config{Path: "/opus", SampleRate: 16000, Channels: 1}
	want := append(append([]string{"path=/opus"}, ident...), "rate=16000", "channels=1")
	assert.Equal(t, want, cfg.txtRecords())

	assert.Equal(t, append([]string{"path=/x"}, ident...), Config{Path: "/x"}.txtRecords())
	assert.Contains(t, cfg.txtRecords(), "manufacturer=Sendspin")
}

func TestServerFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Tone._opushandle._tcp.local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8927,
		InfoFields: []string{"path=/live", "rate=48000", "channels=2", "junk"},
	}

	server := serverFromEntry(entry)
	assert.Equal(t, "192.168.1.20", server.Host)
	assert.Equal(t, "192.168.1.20:8927", server.Addr())
	assert.Equal(t, "/live", server.Path)
	assert.Equal(t, 48000, server.SampleRate)
	assert.Equal(t, 2, server.Channels)
}

func TestServerFromEntry_Defaults(t *testing.T) {
	server := serverFromEntry(&mdns.ServiceEntry{
		Name:   "v6",
		AddrV6: net.ParseIP("fe80::1"),
		Port:   9000,
	})
	assert.Equal(t, DefaultPath, server.Path)
	assert.Equal(t, "[fe80::1]:9000", server.Addr())
	assert.Zero(t, server.SampleRate)
}
