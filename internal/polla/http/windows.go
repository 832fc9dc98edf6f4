package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
)

// computeStatus proyecta el estado visible de una ventana. Una fila inactiva
// sin estado terminal se reporta como aborted.
func computeStatus(w *repo.Window) string {
	if w == nil {
		return "sin_fecha"
	}
	if w.Status == repo.WindowFinished {
		return repo.WindowFinished
	}
	if w.Status == repo.WindowAborted || !w.IsActive {
		return repo.WindowAborted
	}
	return repo.WindowOpen
}

// getWindows retorna la ventana activa, o con ?all=1 el historial completo.
// Los no-admin solo ven ventanas abiertas o finalizadas en el historial.
func (s *Server) getWindows(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())

	if r.URL.Query().Get("all") == "1" {
		var statuses []string
		if c.Role != repo.RoleAdmin {
			statuses = []string{repo.WindowOpen, repo.WindowFinished}
		}
		windows, err := s.windows.List(r.Context(), statuses)
		if err != nil {
			s.log.Error("window list failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "No se pudo obtener las fechas")
			return
		}
		for i := range windows {
			windows[i].Status = computeStatus(&windows[i])
		}
		writeJSON(w, http.StatusOK, dto.WindowListResponse{OK: true, Windows: windows})
		return
	}

	cur, err := s.windows.CurrentOpen(r.Context())
	if errors.Is(err, repo.ErrNoOpenWindow) {
		writeJSON(w, http.StatusOK, dto.CurrentWindowResponse{OK: true, Window: nil, Status: "sin_fecha"})
		return
	}
	if err != nil {
		s.log.Error("current window lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo obtener la fecha")
		return
	}
	writeJSON(w, http.StatusOK, dto.CurrentWindowResponse{OK: true, Window: cur, Status: computeStatus(cur)})
}

// openWindow abre una ventana nueva desactivando cualquier anterior.
func (s *Server) openWindow(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())
	if c.Role != repo.RoleAdmin {
		writeError(w, http.StatusForbidden, "Solo admin")
		return
	}

	var req dto.OpenWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = dto.OpenWindowRequest{}
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "Faltan fechas")
		return
	}

	win, err := s.windows.Open(r.Context(), req.StartDate, req.EndDate, req.MinOdds, req.MaxOdds)
	if err != nil {
		s.log.Error("window open failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo guardar la fecha")
		return
	}

	s.hooks.windowOpened()
	s.log.Info("window opened",
		zap.String("window_id", win.ID),
		zap.String("start", win.StartDate),
		zap.String("end", win.EndDate),
		zap.String("actor", c.Email))
	writeJSON(w, http.StatusOK, dto.OpenWindowResponse{OK: true, Window: win})
}

// abortWindow marca una ventana como abortada. Una finalizada no se toca.
func (s *Server) abortWindow(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())
	if c.Role != repo.RoleAdmin {
		writeError(w, http.StatusForbidden, "Solo admin")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Falta id de fecha")
		return
	}

	err := s.windows.Abort(r.Context(), id)
	switch {
	case errors.Is(err, repo.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "No se encontró la ventana")
	case errors.Is(err, repo.ErrWindowIsFinished):
		writeError(w, http.StatusBadRequest, "No se puede abortar una fecha finalizada")
	case err != nil:
		s.log.Error("window abort failed", zap.String("window_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo abortar la fecha")
	default:
		s.log.Info("window aborted", zap.String("window_id", id), zap.String("actor", c.Email))
		writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
	}
}
