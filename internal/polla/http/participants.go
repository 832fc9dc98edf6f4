package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
)

// createParticipant da de alta (o renombra) un participante y lo agrega a la
// allow-list. Un admin existente nunca baja a participant.
func (s *Server) createParticipant(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())
	if c.Role != repo.RoleAdmin {
		writeError(w, http.StatusForbidden, "Solo admin")
		return
	}

	var req dto.CreateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = dto.CreateParticipantRequest{}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		writeError(w, http.StatusBadRequest, "Faltan nombre y correo")
		return
	}

	if err := s.participants.Upsert(r.Context(), email, name); err != nil {
		s.log.Error("participant upsert failed", zap.String("email", email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo guardar participante")
		return
	}

	// allow-list best effort, el alta del participante ya quedó
	if err := s.roles.EnsureParticipant(r.Context(), email); err != nil {
		s.log.Warn("allow-list upsert failed", zap.String("email", email), zap.Error(err))
	}

	s.log.Info("participant upserted", zap.String("email", email), zap.String("actor", c.Email))
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
