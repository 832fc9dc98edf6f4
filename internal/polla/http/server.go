package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/odds"
	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
	"github.com/Luisbassos/luz-verde/internal/ratelimit"
	"github.com/Luisbassos/luz-verde/pkg/contracts/events"
)

// WindowsRepo define las operaciones de ventanas usadas por los handlers.
type WindowsRepo interface {
	Open(ctx context.Context, start, end string, minOdds, maxOdds *float64) (*repo.Window, error)
	CurrentOpen(ctx context.Context) (*repo.Window, error)
	Latest(ctx context.Context) (*repo.Window, error)
	Get(ctx context.Context, id string) (*repo.Window, error)
	List(ctx context.Context, statuses []string) ([]repo.Window, error)
	Abort(ctx context.Context, id string) error
	Finish(ctx context.Context, id string) error
}

type BetsRepo interface {
	Upsert(ctx context.Context, b *repo.Bet) (string, error)
	ListByWindow(ctx context.Context, windowID string) ([]repo.Bet, error)
	BackfillNoShow(ctx context.Context, windowID string, participantIDs []string) (int, error)
}

type ParticipantsRepo interface {
	Upsert(ctx context.Context, email, name string) error
	List(ctx context.Context) ([]repo.Participant, error)
	FindByEmail(ctx context.Context, email string) (*repo.Participant, error)
}

type RolesRepo interface {
	Lookup(ctx context.Context, email string) (role string, found bool, err error)
	EnsureParticipant(ctx context.Context, email string) error
}

type TokensRepo interface {
	IsValid(ctx context.Context, token string) (bool, error)
}

type TicketsRepo interface {
	Insert(ctx context.Context, windowID, imagePath string) error
}

// Storage sube evidencia y firma URLs de lectura temporal.
type Storage interface {
	Upload(ctx context.Context, path, contentType string, data []byte) error
	SignURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

type OddsService interface {
	GetOdds(ctx context.Context, sport string, start, end time.Time, min, max float64) (*odds.Result, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
}

type Publisher interface {
	PublishBetSubmitted(ctx context.Context, e events.BetSubmitted) error
	PublishWindowFinished(ctx context.Context, e events.WindowFinished) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Hooks son callbacks de métricas; cualquier campo puede ser nil.
type Hooks struct {
	OnBetSubmitted   func()
	OnWindowOpened   func()
	OnWindowFinished func()
	OnRateLimited    func()
}

func (h Hooks) betSubmitted() {
	if h.OnBetSubmitted != nil {
		h.OnBetSubmitted()
	}
}

func (h Hooks) windowOpened() {
	if h.OnWindowOpened != nil {
		h.OnWindowOpened()
	}
}

func (h Hooks) windowFinished() {
	if h.OnWindowFinished != nil {
		h.OnWindowFinished()
	}
}

func (h Hooks) rateLimited() {
	if h.OnRateLimited != nil {
		h.OnRateLimited()
	}
}

// Deps agrupa todo lo que el servidor necesita inyectado.
type Deps struct {
	Log          *zap.Logger
	Windows      WindowsRepo
	Bets         BetsRepo
	Participants ParticipantsRepo
	Roles        RolesRepo
	Tokens       TokensRepo
	Tickets      TicketsRepo
	Storage      Storage
	Odds         OddsService
	Limiter      Limiter
	Publisher    Publisher
	Broadcaster  Broadcaster
	WSHandler    http.HandlerFunc
	Hooks        Hooks
}

// Server expone la API REST de la polla.
type Server struct {
	log          *zap.Logger
	windows      WindowsRepo
	bets         BetsRepo
	participants ParticipantsRepo
	roles        RolesRepo
	tokens       TokensRepo
	tickets      TicketsRepo
	storage      Storage
	odds         OddsService
	limiter      Limiter
	publ         Publisher
	bcast        Broadcaster
	wsHandler    http.HandlerFunc
	hooks        Hooks
}

func NewServer(d Deps) *Server {
	return &Server{
		log:          d.Log,
		windows:      d.Windows,
		bets:         d.Bets,
		participants: d.Participants,
		roles:        d.Roles,
		tokens:       d.Tokens,
		tickets:      d.Tickets,
		storage:      d.Storage,
		odds:         d.Odds,
		limiter:      d.Limiter,
		publ:         d.Publisher,
		bcast:        d.Broadcaster,
		wsHandler:    d.WSHandler,
		hooks:        d.Hooks,
	}
}

// Router arma las rutas. Las cuotas, la validación de tokens y el WS son
// públicos; el resto exige un correo de la allow-list.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS)

	r.Post("/v1/validate-token", s.validateToken)
	r.Get("/v1/odds", s.getOdds)
	if s.wsHandler != nil {
		r.Get("/v1/ws", s.wsHandler)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(s.withAuth)
		pr.Get("/v1/windows", s.getWindows)
		pr.Post("/v1/windows", s.openWindow)
		pr.Delete("/v1/windows/{id}", s.abortWindow)
		pr.Post("/v1/admin-ticket", s.adminTicket)
		pr.Get("/v1/bets", s.listBets)
		pr.Post("/v1/bets", s.submitBet)
		pr.Post("/v1/participants", s.createParticipant)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{OK: false, Error: msg})
}
