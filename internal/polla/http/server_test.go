package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/odds"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
	"github.com/Luisbassos/luz-verde/internal/ratelimit"
	"github.com/Luisbassos/luz-verde/pkg/contracts/events"
)

type fakeWindows struct {
	open   *repo.Window
	latest *repo.Window
	byID   map[string]*repo.Window
	list   []repo.Window

	opened       []repo.Window
	aborted      []string
	finished     []string
	listStatuses []string
	abortErr     error
}

func (f *fakeWindows) Open(ctx context.Context, start, end string, minOdds, maxOdds *float64) (*repo.Window, error) {
	w := repo.Window{ID: "w-new", StartDate: start, EndDate: end, IsActive: true, Status: repo.WindowOpen, MinOdds: minOdds, MaxOdds: maxOdds}
	f.opened = append(f.opened, w)
	return &w, nil
}

func (f *fakeWindows) CurrentOpen(ctx context.Context) (*repo.Window, error) {
	if f.open == nil {
		return nil, repo.ErrNoOpenWindow
	}
	return f.open, nil
}

func (f *fakeWindows) Latest(ctx context.Context) (*repo.Window, error) {
	if f.latest != nil {
		return f.latest, nil
	}
	return f.CurrentOpen(ctx)
}

func (f *fakeWindows) Get(ctx context.Context, id string) (*repo.Window, error) {
	if w, ok := f.byID[id]; ok {
		return w, nil
	}
	return nil, repo.ErrWindowNotFound
}

func (f *fakeWindows) List(ctx context.Context, statuses []string) ([]repo.Window, error) {
	f.listStatuses = statuses
	return f.list, nil
}

func (f *fakeWindows) Abort(ctx context.Context, id string) error {
	if f.abortErr != nil {
		return f.abortErr
	}
	f.aborted = append(f.aborted, id)
	return nil
}

func (f *fakeWindows) Finish(ctx context.Context, id string) error {
	f.finished = append(f.finished, id)
	return nil
}

type fakeBets struct {
	upserted   []repo.Bet
	byWindow   []repo.Bet
	backfillID string
	backfillPs []string
	backfillN  int
}

func (f *fakeBets) Upsert(ctx context.Context, b *repo.Bet) (string, error) {
	f.upserted = append(f.upserted, *b)
	return "bet-1", nil
}

func (f *fakeBets) ListByWindow(ctx context.Context, windowID string) ([]repo.Bet, error) {
	return f.byWindow, nil
}

func (f *fakeBets) BackfillNoShow(ctx context.Context, windowID string, participantIDs []string) (int, error) {
	f.backfillID = windowID
	f.backfillPs = participantIDs
	return f.backfillN, nil
}

type fakeParticipants struct {
	byEmail  map[string]*repo.Participant
	all      []repo.Participant
	upserted []string
}

func (f *fakeParticipants) Upsert(ctx context.Context, email, name string) error {
	f.upserted = append(f.upserted, email)
	return nil
}

func (f *fakeParticipants) List(ctx context.Context) ([]repo.Participant, error) {
	return f.all, nil
}

func (f *fakeParticipants) FindByEmail(ctx context.Context, email string) (*repo.Participant, error) {
	if p, ok := f.byEmail[email]; ok {
		return p, nil
	}
	return nil, repo.ErrNotRegistered
}

type fakeRoles struct {
	roles   map[string]string // email -> role
	ensured []string
}

func (f *fakeRoles) Lookup(ctx context.Context, email string) (string, bool, error) {
	role, ok := f.roles[email]
	return role, ok, nil
}

func (f *fakeRoles) EnsureParticipant(ctx context.Context, email string) error {
	f.ensured = append(f.ensured, email)
	return nil
}

type fakeTokens struct {
	valid map[string]bool
}

func (f *fakeTokens) IsValid(ctx context.Context, token string) (bool, error) {
	return f.valid[token], nil
}

type fakeTickets struct {
	windowIDs []string
	paths     []string
}

func (f *fakeTickets) Insert(ctx context.Context, windowID, imagePath string) error {
	f.windowIDs = append(f.windowIDs, windowID)
	f.paths = append(f.paths, imagePath)
	return nil
}

type upload struct {
	path        string
	contentType string
	data        []byte
}

type fakeStorage struct {
	uploads   []upload
	uploadErr error
}

func (f *fakeStorage) Upload(ctx context.Context, path, contentType string, data []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, upload{path: path, contentType: contentType, data: data})
	return nil
}

func (f *fakeStorage) SignURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + path, nil
}

type oddsCall struct {
	sport      string
	start, end time.Time
	min, max   float64
}

type fakeOdds struct {
	calls  []oddsCall
	result *odds.Result
	err    error
}

func (f *fakeOdds) GetOdds(ctx context.Context, sport string, start, end time.Time, min, max float64) (*odds.Result, error) {
	f.calls = append(f.calls, oddsCall{sport: sport, start: start, end: end, min: min, max: max})
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &odds.Result{Sport: sport, FetchedAt: time.Now()}, nil
}

type fakeLimiter struct {
	res  ratelimit.Result
	err  error
	keys []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (ratelimit.Result, error) {
	f.keys = append(f.keys, key)
	return f.res, f.err
}

type fakePublisher struct {
	bets     []events.BetSubmitted
	finishes []events.WindowFinished
}

func (f *fakePublisher) PublishBetSubmitted(ctx context.Context, e events.BetSubmitted) error {
	f.bets = append(f.bets, e)
	return nil
}

func (f *fakePublisher) PublishWindowFinished(ctx context.Context, e events.WindowFinished) error {
	f.finishes = append(f.finishes, e)
	return nil
}

type fakeBroadcaster struct {
	channels []string
	payloads [][]byte
}

func (f *fakeBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fixture struct {
	windows      *fakeWindows
	bets         *fakeBets
	participants *fakeParticipants
	roles        *fakeRoles
	tokens       *fakeTokens
	tickets      *fakeTickets
	storage      *fakeStorage
	odds         *fakeOdds
	limiter      *fakeLimiter
	publisher    *fakePublisher
	broadcaster  *fakeBroadcaster

	handler http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		windows:      &fakeWindows{byID: map[string]*repo.Window{}},
		bets:         &fakeBets{},
		participants: &fakeParticipants{byEmail: map[string]*repo.Participant{}},
		roles: &fakeRoles{roles: map[string]string{
			"admin@polla.cl": repo.RoleAdmin,
			"juan@polla.cl":  repo.RoleParticipant,
		}},
		tokens:      &fakeTokens{valid: map[string]bool{}},
		tickets:     &fakeTickets{},
		storage:     &fakeStorage{},
		odds:        &fakeOdds{},
		limiter:     &fakeLimiter{res: ratelimit.Result{Allowed: true}},
		publisher:   &fakePublisher{},
		broadcaster: &fakeBroadcaster{},
	}
	srv := NewServer(Deps{
		Log:          zap.NewNop(),
		Windows:      f.windows,
		Bets:         f.bets,
		Participants: f.participants,
		Roles:        f.roles,
		Tokens:       f.tokens,
		Tickets:      f.tickets,
		Storage:      f.storage,
		Odds:         f.odds,
		Limiter:      f.limiter,
		Publisher:    f.publisher,
		Broadcaster:  f.broadcaster,
	})
	f.handler = srv.Router()
	return f
}

func openWindow(id string) *repo.Window {
	return &repo.Window{
		ID:        id,
		StartDate: "2026-09-01",
		EndDate:   "2026-09-07",
		IsActive:  true,
		Status:    repo.WindowOpen,
	}
}

func (f *fixture) do(t *testing.T, method, target, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if email != "" {
		req.Header.Set("X-Auth-Email", email)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	wantStatus(t, rec, status)
	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	if body.OK || body.Error != msg {
		t.Fatalf("error body = %+v, want %q", body, msg)
	}
}

func dataURL(mime, payload string) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, payload)
}
