package odds

import (
	"sort"
	"time"

	"github.com/Luisbassos/luz-verde/internal/odds/provider"
)

// OutcomePrice es la mejor cuota encontrada para un resultado con nombre.
type OutcomePrice struct {
	Market string  `json:"market"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// EventOdds es un evento con sus mejores cuotas dentro de la banda.
type EventOdds struct {
	ID       string         `json:"id"`
	Sport    string         `json:"sport"`
	Commence time.Time      `json:"commence"`
	Home     string         `json:"home"`
	Away     string         `json:"away"`
	Markets  []OutcomePrice `json:"markets"`
}

// FilterByDate descarta eventos cuyo commence_time queda fuera de [start, end].
func FilterByDate(events []provider.Event, start, end time.Time) []provider.Event {
	out := make([]provider.Event, 0, len(events))
	for _, ev := range events {
		if ev.CommenceTime.Before(start) || ev.CommenceTime.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Aggregate recorre todos los bookmakers de cada evento y se queda con la
// mejor cuota por nombre de resultado dentro de la banda [min, max].
// Comparación estricta (>): en empate gana el resultado visto primero.
// Eventos sin resultados sobrevivientes se descartan; las cuotas de cada
// evento quedan ordenadas de mayor a menor.
func Aggregate(events []provider.Event, min, max float64) []EventOdds {
	out := make([]EventOdds, 0, len(events))
	for _, ev := range events {
		best := make(map[string]OutcomePrice)
		var order []string // orden de primera aparición

		for _, bk := range ev.Bookmakers {
			for _, mk := range bk.Markets {
				for _, oc := range mk.Outcomes {
					if oc.Price < min || oc.Price > max {
						continue
					}
					existing, ok := best[oc.Name]
					if !ok {
						order = append(order, oc.Name)
					}
					if !ok || oc.Price > existing.Price {
						best[oc.Name] = OutcomePrice{
							Market: mk.Key,
							Name:   oc.Name,
							Price:  oc.Price,
						}
					}
				}
			}
		}

		if len(best) == 0 {
			continue
		}

		markets := make([]OutcomePrice, 0, len(best))
		for _, name := range order {
			markets = append(markets, best[name])
		}
		sort.SliceStable(markets, func(i, j int) bool {
			return markets[i].Price > markets[j].Price
		})

		out = append(out, EventOdds{
			ID:       ev.ID,
			Sport:    ev.SportKey,
			Commence: ev.CommenceTime,
			Home:     ev.HomeTeam,
			Away:     ev.AwayTeam,
			Markets:  markets,
		})
	}
	return out
}
