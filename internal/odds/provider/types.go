package provider

import "time"

// Estructuras del payload del proveedor (the-odds-api v4, cuotas decimales).

type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title,omitempty"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title,omitempty"`
	Markets []Market `json:"markets"`
}

type Market struct {
	Key      string    `json:"key"` // "h2h" | "spreads"
	Outcomes []Outcome `json:"outcomes"`
}

type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"` // cuota decimal
	Point *float64 `json:"point,omitempty"`
}
