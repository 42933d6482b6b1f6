// ABOUTME: mDNS service discovery for opus stream servers
// ABOUTME: Advertises tone servers and browses for them from the CLI
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/Sendspin/opushandle/internal/version"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of an opus stream server
const ServiceType = "_opushandle._tcp"

// DefaultPath is advertised when Config.Path is empty
const DefaultPath = "/opus"

// browseTimeout bounds one mDNS query round
const browseTimeout = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string
	// SampleRate and Channels are advertised so clients can open a matching decoder
	SampleRate int
	Channels   int
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name       string
	Host       string
	Port       int
	Path       string
	SampleRate int
	Channels   int
}

// Addr returns host:port
func (s *ServerInfo) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// txtRecords renders the advertised key=value fields
func (c Config) txtRecords() []string {
	txt := []string{
		"path=" + c.Path,
		"product=" + version.Product,
		"version=" + version.Version,
		"manufacturer=" + version.Manufacturer,
	}
	if c.SampleRate > 0 {
		txt = append(txt, fmt.Sprintf("rate=%d", c.SampleRate))
	}
	if c.Channels > 0 {
		txt = append(txt, fmt.Sprintf("channels=%d", c.Channels))
	}
	return txt
}

// Advertise advertises the stream server via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.config.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for stream servers until Stop
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for servers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				server := serverFromEntry(entry)
				log.Printf("Discovered server: %s at %s%s", server.Name, server.Addr(), server.Path)

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: browseTimeout,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
	}
}

// serverFromEntry converts a browse result, defaulting the path
func serverFromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	server := &ServerInfo{
		Name: entry.Name,
		Port: entry.Port,
		Path: DefaultPath,
	}
	if entry.AddrV4 != nil {
		server.Host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		server.Host = entry.AddrV6.String()
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			server.Path = value
		case "rate":
			fmt.Sscan(value, &server.SampleRate)
		case "channels":
			fmt.Sscan(value, &server.Channels)
		}
	}
	return server
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IPv4 addresses of interfaces that are up
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
