package gateway

import (
	"net/http"

	"github.com/soyeahso/zor/internal/hooks"
	"github.com/soyeahso/zor/internal/version"
)

const maxEventReadBytes = 64 * 1024

// handleEvents upgrades to a websocket and streams lifecycle events until
// the subscriber disconnects. Inbound frames are read and discarded.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxEventReadBytes)

	client := NewClient(conn, r.RemoteAddr, s.log)
	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	hello := HelloPayload{
		Version: version.Version,
		ConnID:  client.ConnID,
		Events:  hooks.AllEvents,
	}
	if err := client.SendEvent(EventHello, hello, 0); err != nil {
		s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("sending hello failed")
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
