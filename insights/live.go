package insights

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"croplens/app"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Live streams a fresh render of the browser's view after every change.
// Closing the connection unmounts the view once it has been idle for a while.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(viewCookie); err == nil && c != nil {
		id = c.Value
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Log("insights", "WebSocket upgrade error: %v", err)
		return
	}

	v, updates, stop := h.Views.Watch(id)
	defer func() {
		stop()
		h.Views.Release(v)
		conn.Close()
	}()

	// Reads only detect the browser going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
