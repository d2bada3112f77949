package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Demo dashboard; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and streams every broadcast snapshot as a
// JSON frame. Clients that fall behind miss frames instead of blocking the
// redraw loop.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	snapshots, cancel := s.svc.Subscribe()
	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("dashboard client connected")

	done := make(chan struct{})

	// Read pump: inbound frames are discarded, but reading is required to
	// notice the peer closing.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			cancel()
			_ = conn.Close()
			s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("dashboard client disconnected")
		}()

		// Seed the client with the current state before the first tick.
		initial := s.svc.SnapshotNow(time.Now().UTC())
		_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		if err := conn.WriteJSON(initial); err != nil {
			return
		}

		pinger := time.NewTicker(s.opts.PingInterval)
		defer pinger.Stop()

		for {
			select {
			case <-done:
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			case <-pinger.C:
				_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
