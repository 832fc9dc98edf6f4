package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/pubsub"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
	"github.com/Luisbassos/luz-verde/pkg/contracts/events"
)

// adminTicket sube la cartilla de resultados y cierra la ventana: registra la
// cartilla, marca no_show a quien no apostó y deja la ventana finalizada.
func (s *Server) adminTicket(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())
	if c.Role != repo.RoleAdmin {
		writeError(w, http.StatusForbidden, "Solo admin")
		return
	}

	var req dto.AdminTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = dto.AdminTicketRequest{}
	}
	if req.ImageData == "" {
		writeError(w, http.StatusBadRequest, "Falta imagen de cartilla")
		return
	}

	window, err := s.windows.CurrentOpen(r.Context())
	if errors.Is(err, repo.ErrNoOpenWindow) {
		writeError(w, http.StatusBadRequest, "No hay ventana abierta")
		return
	}
	if err != nil {
		s.log.Error("ticket window lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo obtener la fecha")
		return
	}
	// con window_id explícito la ventana igual debe ser la activa
	if req.WindowID != "" && req.WindowID != window.ID {
		writeError(w, http.StatusBadRequest, "No hay ventana abierta")
		return
	}

	mime, raw, err := parseDataURL(req.ImageData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Imagen inválida")
		return
	}

	path := fmt.Sprintf("admin_tickets/%s/%s", window.ID, uuid.NewString())
	if err := s.storage.Upload(r.Context(), path, mime, raw); err != nil {
		s.log.Error("ticket upload failed", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo subir la imagen")
		return
	}

	if err := s.tickets.Insert(r.Context(), window.ID, path); err != nil {
		s.log.Error("ticket insert failed", zap.String("window_id", window.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo guardar la cartilla")
		return
	}

	// Back-fill de no_show, best effort: si la lectura falla se cierra igual.
	backfilled := 0
	participants, err := s.participants.List(r.Context())
	if err != nil {
		s.log.Warn("participant list failed, skipping no_show backfill",
			zap.String("window_id", window.ID), zap.Error(err))
	} else {
		ids := make([]string, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.ID)
		}
		backfilled, err = s.bets.BackfillNoShow(r.Context(), window.ID, ids)
		if err != nil {
			s.log.Warn("no_show backfill failed",
				zap.String("window_id", window.ID), zap.Error(err))
		}
	}

	if err := s.windows.Finish(r.Context(), window.ID); err != nil {
		s.log.Error("window finish failed", zap.String("window_id", window.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo finalizar la ventana")
		return
	}

	s.hooks.windowFinished()
	s.log.Info("window finished",
		zap.String("window_id", window.ID),
		zap.Int("no_show_backfilled", backfilled),
		zap.String("actor", c.Email))

	if s.publ != nil {
		err := s.publ.PublishWindowFinished(r.Context(), events.WindowFinished{
			WindowID:         window.ID,
			TicketImagePath:  path,
			ActorEmail:       c.Email,
			NoShowBackfilled: backfilled,
		})
		if err != nil {
			s.log.Warn("window_finished publish failed", zap.String("window_id", window.ID), zap.Error(err))
		}
	}

	if s.bcast != nil {
		payload, _ := json.Marshal(pubsub.WSUpdate{
			WindowID: window.ID,
			Payload:  map[string]string{"status": repo.WindowFinished},
		})
		if err := s.bcast.Publish(r.Context(), pubsub.ChannelBetUpdates, payload); err != nil {
			s.log.Warn("window broadcast failed", zap.String("window_id", window.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, dto.AdminTicketResponse{OK: true, ImageURL: path})
}
