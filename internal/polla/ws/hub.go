package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub administra las conexiones WebSocket y las suscripciones por ventana
// subs: mapea windowID al conjunto de conexiones suscritas
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// windowID -> set of connections
	subs map[string]map[*websocket.Conn]struct{}
}

// NewHub crea una instancia de Hub con política de origen personalizada (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS administra el ciclo de vida de una conexión WebSocket
// Permite subscribe/unsubscribe por ventana y responde a pings
// Cada cliente puede suscribirse a varias ventanas
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.WindowID]; !ok {
				h.subs[msg.WindowID] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.WindowID][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.WindowID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.WindowID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// Quita la conexión de todas las suscripciones al desconectar
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Broadcast envía una actualización a todos los clientes suscritos a la ventana
func (h *Hub) Broadcast(update BetUpdate) {
	h.mu.RLock()
	conns := h.subs[update.WindowID]
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
