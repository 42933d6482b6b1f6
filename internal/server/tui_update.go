// ABOUTME: TUI update helpers for server
// ABOUTME: Functions to send server state updates to TUI
package server

import "sort"

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	s.clientsMu.RLock()
	clients := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, ClientInfo{ID: c.id, Addr: c.addr})
	}
	s.clientsMu.RUnlock()
	sort.Slice(clients, func(i, j int) bool { return clients[i].Addr < clients[j].Addr })

	s.tui.Update(ServerStatus{
		Name:      s.config.Name,
		Port:      s.config.Port,
		Clients:   clients,
		Format:    formatName(s.config.SampleRate, s.config.Channels),
		Tone:      s.tone.Frequency(),
		Packets:   s.PacketsSent(),
		RTPTarget: s.config.RTPTarget,
	})
}
