package web

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// Hub fans position events out to websocket subscribers. It implements
// domain.EventSink so the position service can stay unaware of the
// transport.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Publish sends the event to every connected subscriber, dropping
// connections that fail to accept the write.
func (h *Hub) Publish(event domain.PositionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("Dropping event subscriber", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Drain client frames so pings and closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
