package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/odds/provider"
	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
)

const (
	defaultSport   = "soccer_spain_la_liga"
	defaultMinOdds = 1.45
	defaultMaxOdds = 3.0
	defaultRange   = 7 * 24 * time.Hour
)

// parseQueryTime acepta fecha sola o timestamp RFC3339.
func parseQueryTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// getOdds expone el pipeline de cuotas. Sin banda explícita se usa la de la
// ventana activa y como último recurso la banda por defecto.
func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sport := q.Get("sport")
	if sport == "" {
		sport = defaultSport
	}

	minOdds, minErr := strconv.ParseFloat(q.Get("minOdds"), 64)
	maxOdds, maxErr := strconv.ParseFloat(q.Get("maxOdds"), 64)
	if minErr != nil || maxErr != nil {
		var winMin, winMax *float64
		if win, err := s.windows.CurrentOpen(r.Context()); err == nil {
			winMin, winMax = win.MinOdds, win.MaxOdds
		} else if !errors.Is(err, repo.ErrNoOpenWindow) {
			s.log.Warn("active window lookup failed for odds band", zap.Error(err))
		}
		if minErr != nil {
			minOdds = defaultMinOdds
			if winMin != nil {
				minOdds = *winMin
			}
		}
		if maxErr != nil {
			maxOdds = defaultMaxOdds
			if winMax != nil {
				maxOdds = *winMax
			}
		}
	}

	start := time.Now()
	if t, ok := parseQueryTime(q.Get("start_date")); ok {
		start = t
	}
	end := start.Add(defaultRange)
	if t, ok := parseQueryTime(q.Get("end_date")); ok {
		end = t
	}

	result, err := s.odds.GetOdds(r.Context(), sport, start, end, minOdds, maxOdds)
	if err != nil {
		var ue *provider.UpstreamError
		if errors.As(err, &ue) {
			// el status del proveedor se propaga tal cual
			writeError(w, ue.StatusCode, "Odds API error")
			return
		}
		s.log.Error("odds pipeline failed", zap.String("sport", sport), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Odds API error")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dto.OddsResponse{
		OK:        true,
		Cached:    result.Cached,
		Sport:     result.Sport,
		StartDate: start.UTC().Format(time.RFC3339),
		EndDate:   end.UTC().Format(time.RFC3339),
		Odds:      result.Odds,
		RawEvents: result.RawEvents,
		FetchedAt: result.FetchedAt.UTC().Format(time.RFC3339),
	})
}
