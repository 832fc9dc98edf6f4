package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/pubsub"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
	"github.com/Luisbassos/luz-verde/pkg/contracts/events"
)

var dataURLRe = regexp.MustCompile(`^data:(.+);base64,(.*)$`)

// parseDataURL separa mime y bytes de un data URL base64.
func parseDataURL(s string) (mime string, data []byte, err error) {
	m := dataURLRe.FindStringSubmatch(s)
	if m == nil {
		return "", nil, errors.New("not a base64 data url")
	}
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, err
	}
	return m[1], raw, nil
}

// resolveBetWindow decide sobre qué ventana opera una apuesta. Con window_id
// explícito se busca por id (puede ser inactiva); sin id los admin apuntan a
// la más reciente y el resto solo a la abierta.
func (s *Server) resolveBetWindow(r *http.Request, windowID string, admin bool) (*repo.Window, error) {
	if windowID != "" {
		return s.windows.Get(r.Context(), windowID)
	}
	if admin {
		return s.windows.Latest(r.Context())
	}
	return s.windows.CurrentOpen(r.Context())
}

// submitBet registra o corrige la apuesta de un participante en la ventana.
func (s *Server) submitBet(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())
	isAdmin := c.Role == repo.RoleAdmin

	var req dto.SubmitBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = dto.SubmitBetRequest{}
	}

	hasEvidence := req.BetLink != "" || req.BetImageURL != "" || req.BetImageData != ""
	hasStatus := req.Status != ""
	if !hasEvidence && (!isAdmin || !hasStatus) {
		writeError(w, http.StatusBadRequest, "Debes enviar imagen o link")
		return
	}
	if isAdmin && hasStatus && !repo.ValidBetStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Estado inválido")
		return
	}

	window, err := s.resolveBetWindow(r, req.WindowID, isAdmin)
	if err != nil {
		if errors.Is(err, repo.ErrNoOpenWindow) || errors.Is(err, repo.ErrWindowNotFound) {
			msg := "No hay ventana abierta"
			if isAdmin {
				msg = "No se encontró la ventana"
			}
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		s.log.Error("bet window lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo obtener la fecha")
		return
	}

	var participantID string
	if isAdmin && req.ParticipantID != "" {
		participantID = req.ParticipantID
	} else {
		me, err := s.participants.FindByEmail(r.Context(), c.Email)
		if errors.Is(err, repo.ErrNotRegistered) {
			writeError(w, http.StatusBadRequest, "No estás registrado como participante")
			return
		}
		if err != nil {
			s.log.Error("participant lookup failed", zap.String("email", c.Email), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error interno")
			return
		}
		if !isAdmin && req.ParticipantID != "" && req.ParticipantID != me.ID {
			writeError(w, http.StatusForbidden, "No puedes editar apuestas de otros")
			return
		}
		participantID = me.ID
	}

	status := repo.BetInGame
	if isAdmin && hasStatus {
		status = req.Status
	}

	var imagePath *string
	if req.BetImageURL != "" {
		imagePath = &req.BetImageURL
	}
	if req.BetImageData != "" {
		mime, raw, err := parseDataURL(req.BetImageData)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Imagen inválida")
			return
		}
		path := fmt.Sprintf("bets/%s/%s/%s", window.ID, participantID, uuid.NewString())
		if err := s.storage.Upload(r.Context(), path, mime, raw); err != nil {
			s.log.Error("bet image upload failed", zap.String("path", path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "No se pudo subir la imagen")
			return
		}
		imagePath = &path
	}

	bet := &repo.Bet{
		WindowID:      window.ID,
		ParticipantID: participantID,
		BetImageURL:   imagePath,
		Odds:          req.Odds,
		Status:        status,
	}
	if req.BetLink != "" {
		bet.BetLink = &req.BetLink
	}

	betID, err := s.bets.Upsert(r.Context(), bet)
	if err != nil {
		s.log.Error("bet upsert failed",
			zap.String("window_id", window.ID),
			zap.String("participant_id", participantID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo guardar la apuesta")
		return
	}
	bet.ID = betID

	s.hooks.betSubmitted()
	s.log.Info("bet submitted",
		zap.String("bet_id", betID),
		zap.String("window_id", window.ID),
		zap.String("participant_id", participantID),
		zap.String("status", status),
		zap.String("actor", c.Email))

	if s.publ != nil {
		ev := events.BetSubmitted{
			BetID:         betID,
			WindowID:      window.ID,
			ParticipantID: participantID,
			ActorEmail:    c.Email,
			Status:        status,
			BetLink:       req.BetLink,
		}
		if imagePath != nil {
			ev.BetImageURL = *imagePath
		}
		if req.Odds != nil {
			ev.Odds = *req.Odds
		}
		if err := s.publ.PublishBetSubmitted(r.Context(), ev); err != nil {
			s.log.Warn("bet_submitted publish failed", zap.String("bet_id", betID), zap.Error(err))
		}
	}

	if s.bcast != nil {
		payload, _ := json.Marshal(pubsub.WSUpdate{WindowID: window.ID, Payload: bet})
		if err := s.bcast.Publish(r.Context(), pubsub.ChannelBetUpdates, payload); err != nil {
			s.log.Warn("bet broadcast failed", zap.String("bet_id", betID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, dto.SubmitBetResponse{OK: true, BetID: betID})
}

// listBets arma la vista de una ventana: participantes, apuestas y URLs
// firmadas para la evidencia subida a storage.
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r.Context())

	windowID := r.URL.Query().Get("window_id")
	var window *repo.Window
	var err error
	if windowID != "" {
		window, err = s.windows.Get(r.Context(), windowID)
	} else {
		window, err = s.windows.CurrentOpen(r.Context())
	}
	if errors.Is(err, repo.ErrNoOpenWindow) || errors.Is(err, repo.ErrWindowNotFound) {
		writeJSON(w, http.StatusOK, dto.ListBetsResponse{
			OK:           true,
			Participants: []repo.Participant{},
			Bets:         []repo.Bet{},
		})
		return
	}
	if err != nil {
		s.log.Error("bets window lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "No se pudo obtener la fecha")
		return
	}

	participants, err := s.participants.List(r.Context())
	if err != nil {
		s.log.Error("participant list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error cargando participantes")
		return
	}

	bets, err := s.bets.ListByWindow(r.Context(), window.ID)
	if err != nil {
		s.log.Error("bet list failed", zap.String("window_id", window.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error cargando apuestas")
		return
	}

	// Las rutas de storage se cambian por URLs firmadas de una hora; los
	// links http externos se devuelven tal cual.
	for i := range bets {
		img := bets[i].BetImageURL
		if img == nil || *img == "" || strings.HasPrefix(*img, "http") {
			continue
		}
		signed, err := s.storage.SignURL(r.Context(), *img, time.Hour)
		if err != nil {
			s.log.Warn("sign url failed", zap.String("path", *img), zap.Error(err))
			continue
		}
		bets[i].BetImageURL = &signed
	}

	if participants == nil {
		participants = []repo.Participant{}
	}
	if bets == nil {
		bets = []repo.Bet{}
	}
	writeJSON(w, http.StatusOK, dto.ListBetsResponse{
		OK:           true,
		Role:         c.Role,
		WindowID:     window.ID,
		Window:       window,
		Participants: participants,
		Bets:         bets,
	})
}
