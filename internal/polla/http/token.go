package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
)

// validateToken chequea un token de acceso emitido fuera de banda. Endpoint
// público, protegido por rate limit por IP.
func (s *Server) validateToken(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	res, err := s.limiter.Allow(r.Context(), "validate:"+ip)
	if err != nil {
		// Redis caído no bloquea la validación
		s.log.Warn("rate limiter unavailable", zap.String("ip", ip), zap.Error(err))
		res.Allowed = true
	}
	if !res.Allowed {
		s.hooks.rateLimited()
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
		writeError(w, http.StatusTooManyRequests, "Rate limit")
		return
	}

	var req dto.ValidateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = dto.ValidateTokenRequest{}
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token requerido")
		return
	}

	ok, err := s.tokens.IsValid(r.Context(), req.Token)
	if err != nil {
		s.log.Error("token lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error interno")
		return
	}
	if !ok {
		writeJSON(w, http.StatusForbidden, dto.OKResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
