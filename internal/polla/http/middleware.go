package http

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type ctxKey int

const callerKey ctxKey = iota

// caller es la identidad resuelta por withAuth.
type caller struct {
	Email string
	Role  string
}

func callerFrom(ctx context.Context) caller {
	c, _ := ctx.Value(callerKey).(caller)
	return c
}

// withCORS habilita el acceso desde el dashboard.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Email")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAuth exige el correo verificado que inyecta el proxy de identidad y lo
// valida contra la allow-list de user_roles. Sin fila no hay acceso, aunque
// el correo venga verificado.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get("X-Auth-Email"))
		if email == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		role, found, err := s.roles.Lookup(r.Context(), email)
		if err != nil {
			s.log.Error("role lookup failed", zap.String("email", email), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error interno")
			return
		}
		if !found {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, caller{
			Email: strings.ToLower(email),
			Role:  role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP toma el primer hop de X-Forwarded-For; sin proxy usa RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}
