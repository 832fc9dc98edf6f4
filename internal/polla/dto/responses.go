package dto

import (
	"github.com/Luisbassos/luz-verde/internal/odds"
	"github.com/Luisbassos/luz-verde/internal/odds/provider"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
)

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type SubmitBetResponse struct {
	OK    bool   `json:"ok"`
	BetID string `json:"bet_id"`
}

type CurrentWindowResponse struct {
	OK     bool         `json:"ok"`
	Window *repo.Window `json:"window"`
	Status string       `json:"status"` // open | finished | aborted | sin_fecha
}

type WindowListResponse struct {
	OK      bool          `json:"ok"`
	Windows []repo.Window `json:"windows"`
}

type OpenWindowResponse struct {
	OK     bool         `json:"ok"`
	Window *repo.Window `json:"window"`
}

type ListBetsResponse struct {
	OK           bool               `json:"ok"`
	Role         string             `json:"role,omitempty"`
	WindowID     string             `json:"window_id,omitempty"`
	Window       *repo.Window       `json:"window"`
	Participants []repo.Participant `json:"participants"`
	Bets         []repo.Bet         `json:"bets"`
}

type AdminTicketResponse struct {
	OK       bool   `json:"ok"`
	ImageURL string `json:"image_url"`
}

type OddsResponse struct {
	OK        bool             `json:"ok"`
	Cached    bool             `json:"cached"`
	Sport     string           `json:"sport"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Odds      []odds.EventOdds `json:"odds"`
	RawEvents []provider.Event `json:"raw_events"` // fechas/mercados completos para uso futuro
	FetchedAt string           `json:"fetched_at"`
}
