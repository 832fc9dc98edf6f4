package events

import "time"

// Evento emitido al finalizar una ventana con la cartilla de resultados.
type WindowFinished struct {
	WindowID         string    `json:"window_id"`
	TicketImagePath  string    `json:"ticket_image_path"`
	ActorEmail       string    `json:"actor_email"`
	NoShowBackfilled int       `json:"no_show_backfilled"` // apuestas no_show creadas al cierre
	Ts               time.Time `json:"ts"`
}
