package dto

type SubmitBetRequest struct {
	BetLink       string   `json:"bet_link,omitempty"`
	BetImageURL   string   `json:"bet_image_url,omitempty"`  // path de storage ya subido
	BetImageData  string   `json:"bet_image_data,omitempty"` // data URL base64
	Odds          *float64 `json:"odds,omitempty"`
	Status        string   `json:"status,omitempty"` // solo admin
	ParticipantID string   `json:"participant_id,omitempty"`
	WindowID      string   `json:"window_id,omitempty"`
}

type OpenWindowRequest struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	MinOdds   *float64 `json:"min_odds,omitempty"`
	MaxOdds   *float64 `json:"max_odds,omitempty"`
}

type AdminTicketRequest struct {
	ImageData string `json:"image_data"` // data URL base64 de la cartilla
	WindowID  string `json:"window_id,omitempty"`
}

type CreateParticipantRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}
