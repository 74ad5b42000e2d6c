package hub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The desktop client connects from the local machine only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket and streams every
// published update to it as JSON until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Hub upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sub := h.Subscribe()
	slog.Info("Hub subscriber connected", "remote", r.RemoteAddr, "total", h.Subscribers())

	// Reader goroutine only detects the client closing.
	go func() {
		defer h.Unsubscribe(sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			h.Unsubscribe(sub)
			conn.Close()
			slog.Info("Hub subscriber disconnected", "remote", r.RemoteAddr)
		}()
		for u := range sub.C {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}()
}
