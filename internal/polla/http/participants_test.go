package http

import (
	"net/http"
	"testing"

	"github.com/Luisbassos/luz-verde/internal/polla/dto"
)

func TestCreateParticipantRequiresAdmin(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/v1/participants", "juan@polla.cl", dto.CreateParticipantRequest{
		Email: "nuevo@polla.cl", Name: "Nuevo",
	})
	wantError(t, rec, http.StatusForbidden, "Solo admin")
}

func TestCreateParticipantRequiresNameAndEmail(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/v1/participants", "admin@polla.cl", dto.CreateParticipantRequest{
		Email: "nuevo@polla.cl",
	})
	wantError(t, rec, http.StatusBadRequest, "Faltan nombre y correo")
}

func TestCreateParticipantUpsertsAndAllowLists(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/v1/participants", "admin@polla.cl", dto.CreateParticipantRequest{
		Email: "  Nuevo@Polla.CL ", Name: " Nuevo ",
	})
	wantStatus(t, rec, http.StatusOK)

	if len(f.participants.upserted) != 1 || f.participants.upserted[0] != "nuevo@polla.cl" {
		t.Fatalf("participant upsert = %v, want lowercased trimmed email", f.participants.upserted)
	}
	if len(f.roles.ensured) != 1 || f.roles.ensured[0] != "nuevo@polla.cl" {
		t.Fatalf("allow-list upsert = %v", f.roles.ensured)
	}
}
