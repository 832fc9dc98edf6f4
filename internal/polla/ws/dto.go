package ws

// ClientMsg representa un mensaje recibido del cliente WebSocket
// Type: subscribe | unsubscribe | ping
// WindowID: obligatorio para subscribe/unsubscribe
type ClientMsg struct {
	Type     string `json:"type"`     // subscribe | unsubscribe | ping
	WindowID string `json:"windowId"` // requerido en subscribe/unsubscribe
}

// BetUpdate representa una actualización de apuestas enviada a los clientes WebSocket
type BetUpdate struct {
	WindowID string      `json:"windowId"`
	Payload  interface{} `json:"payload"`
}
