package events

// Evento publicado en el tópico "bet_submitted" cada vez que se crea o
// actualiza una apuesta (envío del participante o calificación del admin).
type BetSubmitted struct {
	BetID         string  `json:"bet_id"`
	WindowID      string  `json:"window_id"`
	ParticipantID string  `json:"participant_id"`
	ActorEmail    string  `json:"actor_email"` // quién hizo el cambio
	Status        string  `json:"status"`      // pending | in_game | ok | nok | no_show
	BetLink       string  `json:"bet_link,omitempty"`
	BetImageURL   string  `json:"bet_image_url,omitempty"`
	Odds          float64 `json:"odds,omitempty"`
	TsUnixMs      int64   `json:"ts_unix_ms"`
}
