package http

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
)

func registerParticipant(f *fixture, email, id string) {
	f.participants.byEmail[email] = &repo.Participant{ID: id, Name: "Juan", Email: email}
}

func TestSubmitBetRequiresEvidence(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{})
	wantError(t, rec, http.StatusBadRequest, "Debes enviar imagen o link")
}

func TestSubmitBetStatusOnlyRejectedForParticipant(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{Status: repo.BetOK})
	wantError(t, rec, http.StatusBadRequest, "Debes enviar imagen o link")
}

func TestSubmitBetNoOpenWindow(t *testing.T) {
	f := newFixture()
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{BetLink: "https://bk.example/x"})
	wantError(t, rec, http.StatusBadRequest, "No hay ventana abierta")
}

func TestSubmitBetUnregisteredParticipant(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{BetLink: "https://bk.example/x"})
	wantError(t, rec, http.StatusBadRequest, "No estás registrado como participante")
}

func TestSubmitBetForcesInGameForParticipant(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	odds := 1.85
	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{
		BetLink: "https://bk.example/x",
		Odds:    &odds,
		Status:  repo.BetOK, // se ignora para no-admin
	})
	wantStatus(t, rec, http.StatusOK)

	if len(f.bets.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(f.bets.upserted))
	}
	b := f.bets.upserted[0]
	if b.Status != repo.BetInGame {
		t.Fatalf("participant status should be forced to in_game, got %q", b.Status)
	}
	if b.WindowID != "w1" || b.ParticipantID != "p1" {
		t.Fatalf("wrong target: %+v", b)
	}
	if b.Odds == nil || *b.Odds != 1.85 {
		t.Fatalf("odds not kept: %+v", b.Odds)
	}
}

func TestSubmitBetCrossParticipantForbidden(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{
		BetLink:       "https://bk.example/x",
		ParticipantID: "p2",
	})
	wantError(t, rec, http.StatusForbidden, "No puedes editar apuestas de otros")
	if len(f.bets.upserted) != 0 {
		t.Fatal("bet should not be saved")
	}
}

func TestSubmitBetOwnParticipantIDAllowed(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{
		BetLink:       "https://bk.example/x",
		ParticipantID: "p1",
	})
	wantStatus(t, rec, http.StatusOK)
}

func TestSubmitBetAdminGradesOtherParticipant(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	f.windows.latest = f.windows.open

	rec := f.do(t, http.MethodPost, "/v1/bets", "admin@polla.cl", dto.SubmitBetRequest{
		Status:        repo.BetNOK,
		ParticipantID: "p2",
	})
	wantStatus(t, rec, http.StatusOK)

	b := f.bets.upserted[0]
	if b.Status != repo.BetNOK || b.ParticipantID != "p2" {
		t.Fatalf("admin grade not applied: %+v", b)
	}
}

func TestSubmitBetAdminInvalidStatus(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	f.windows.latest = f.windows.open

	rec := f.do(t, http.MethodPost, "/v1/bets", "admin@polla.cl", dto.SubmitBetRequest{
		Status:        "ganó",
		ParticipantID: "p2",
	})
	wantError(t, rec, http.StatusBadRequest, "Estado inválido")
}

func TestSubmitBetAdminTargetsLatestWindow(t *testing.T) {
	f := newFixture()
	finished := openWindow("w-old")
	finished.IsActive = false
	finished.Status = repo.WindowFinished
	f.windows.latest = finished

	rec := f.do(t, http.MethodPost, "/v1/bets", "admin@polla.cl", dto.SubmitBetRequest{
		Status:        repo.BetOK,
		ParticipantID: "p2",
	})
	wantStatus(t, rec, http.StatusOK)

	if f.bets.upserted[0].WindowID != "w-old" {
		t.Fatalf("admin should target latest window, got %q", f.bets.upserted[0].WindowID)
	}
}

func TestSubmitBetUploadsImageData(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	raw := []byte("png-bytes")
	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{
		BetImageData: dataURL("image/png", base64.StdEncoding.EncodeToString(raw)),
	})
	wantStatus(t, rec, http.StatusOK)

	if len(f.storage.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(f.storage.uploads))
	}
	up := f.storage.uploads[0]
	if !strings.HasPrefix(up.path, "bets/w1/p1/") {
		t.Fatalf("unexpected upload path %q", up.path)
	}
	if up.contentType != "image/png" || string(up.data) != "png-bytes" {
		t.Fatalf("upload mismatch: %q %q", up.contentType, up.data)
	}

	b := f.bets.upserted[0]
	if b.BetImageURL == nil || *b.BetImageURL != up.path {
		t.Fatalf("stored image path should be the storage path, got %v", b.BetImageURL)
	}
}

func TestSubmitBetInvalidImageData(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{
		BetImageData: "no-es-un-data-url",
	})
	wantError(t, rec, http.StatusBadRequest, "Imagen inválida")
	if len(f.storage.uploads) != 0 {
		t.Fatal("nothing should be uploaded")
	}
}

func TestSubmitBetPublishesAndBroadcasts(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	registerParticipant(f, "juan@polla.cl", "p1")

	rec := f.do(t, http.MethodPost, "/v1/bets", "juan@polla.cl", dto.SubmitBetRequest{
		BetLink: "https://bk.example/x",
	})
	wantStatus(t, rec, http.StatusOK)

	if len(f.publisher.bets) != 1 {
		t.Fatalf("expected 1 bet_submitted event, got %d", len(f.publisher.bets))
	}
	ev := f.publisher.bets[0]
	if ev.BetID != "bet-1" || ev.WindowID != "w1" || ev.ActorEmail != "juan@polla.cl" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(f.broadcaster.payloads) != 1 || f.broadcaster.channels[0] != "polla_bet_updates" {
		t.Fatalf("expected broadcast on polla_bet_updates, got %v", f.broadcaster.channels)
	}
}

func TestListBetsWithoutWindow(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/v1/bets", "juan@polla.cl", nil)
	wantStatus(t, rec, http.StatusOK)

	var body dto.ListBetsResponse
	decodeBody(t, rec, &body)
	if !body.OK || body.Window != nil || len(body.Bets) != 0 || len(body.Participants) != 0 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestListBetsSignsStoragePaths(t *testing.T) {
	f := newFixture()
	f.windows.open = openWindow("w1")
	stored := "bets/w1/p1/img"
	external := "https://external.example/proof.png"
	f.bets.byWindow = []repo.Bet{
		{ID: "b1", WindowID: "w1", ParticipantID: "p1", BetImageURL: &stored, Status: repo.BetInGame},
		{ID: "b2", WindowID: "w1", ParticipantID: "p2", BetImageURL: &external, Status: repo.BetInGame},
	}
	f.participants.all = []repo.Participant{{ID: "p1", Name: "Juan", Email: "juan@polla.cl"}}

	rec := f.do(t, http.MethodGet, "/v1/bets", "juan@polla.cl", nil)
	wantStatus(t, rec, http.StatusOK)

	var body dto.ListBetsResponse
	decodeBody(t, rec, &body)
	if body.WindowID != "w1" || body.Role != repo.RoleParticipant {
		t.Fatalf("unexpected header fields %+v", body)
	}
	if *body.Bets[0].BetImageURL != "https://signed.example/bets/w1/p1/img" {
		t.Fatalf("storage path should be signed, got %q", *body.Bets[0].BetImageURL)
	}
	if *body.Bets[1].BetImageURL != external {
		t.Fatalf("external link should pass through, got %q", *body.Bets[1].BetImageURL)
	}
}

func TestListBetsExplicitWindowID(t *testing.T) {
	f := newFixture()
	finished := openWindow("w-old")
	finished.IsActive = false
	finished.Status = repo.WindowFinished
	f.windows.byID["w-old"] = finished

	rec := f.do(t, http.MethodGet, "/v1/bets?window_id=w-old", "juan@polla.cl", nil)
	wantStatus(t, rec, http.StatusOK)

	var body dto.ListBetsResponse
	decodeBody(t, rec, &body)
	if body.Window == nil || body.Window.ID != "w-old" {
		t.Fatalf("explicit window_id should target inactive windows, got %+v", body.Window)
	}
}
