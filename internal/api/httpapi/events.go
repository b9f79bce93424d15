package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 << 10,
	// Local controller; clients may be served from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events streams state snapshots over a websocket: the current state first,
// then the latest state after each change. Intermediate states may be skipped.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("httpapi: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	hub := h.session.Hub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)
	zlog.Info().Msgf("httpapi: subscriber connected: id=%s remote=%s", sub.ID, r.RemoteAddr)

	// Drain client frames so pongs and close frames are processed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			zlog.Info().Msgf("httpapi: subscriber disconnected: id=%s", sub.ID)
			return

		case state, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(toState(state)); err != nil {
				zlog.Debug().Msgf("httpapi: write failed: id=%s err=%v", sub.ID, err)
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
