package repo

// Estados de una ventana (fecha de la polla).
const (
	WindowOpen     = "open"
	WindowFinished = "finished"
	WindowAborted  = "aborted"
)

// Estados de una apuesta.
const (
	BetPending = "pending"
	BetInGame  = "in_game"
	BetOK      = "ok"
	BetNOK     = "nok"
	BetNoShow  = "no_show"
)

// ValidBetStatus reporta si s es un estado de apuesta conocido.
func ValidBetStatus(s string) bool {
	switch s {
	case BetPending, BetInGame, BetOK, BetNOK, BetNoShow:
		return true
	}
	return false
}

// Window es una ventana de apuestas. A lo más una fila activa a la vez;
// finished y aborted son terminales.
type Window struct {
	ID        string   `json:"id"`
	StartDate string   `json:"start_date"` // YYYY-MM-DD, inclusivo
	EndDate   string   `json:"end_date"`   // YYYY-MM-DD, inclusivo
	IsActive  bool     `json:"is_active"`
	Status    string   `json:"status"`
	MinOdds   *float64 `json:"min_odds,omitempty"`
	MaxOdds   *float64 `json:"max_odds,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// Participant es un jugador de la polla; el email es la clave de upsert.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Bet es la apuesta de un participante en una ventana. Una fila por
// (window_id, participant_id), garantizada por constraint única.
type Bet struct {
	ID            string   `json:"id"`
	WindowID      string   `json:"window_id"`
	ParticipantID string   `json:"participant_id"`
	BetLink       *string  `json:"bet_link,omitempty"`
	BetImageURL   *string  `json:"bet_image_url,omitempty"`
	Odds          *float64 `json:"odds,omitempty"`
	Status        string   `json:"status"`
	Notes         *string  `json:"notes,omitempty"`
}
