package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/object/bets/bets/w1/p1/img" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer svc-key" {
			t.Errorf("missing bearer, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "image/png" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("x-upsert") != "true" {
			t.Error("upsert header missing")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "png-bytes" {
			t.Errorf("unexpected body %q", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "svc-key", "bets")
	if err := c.Upload(context.Background(), "bets/w1/p1/img", "image/png", []byte("png-bytes")); err != nil {
		t.Fatal(err)
	}
}

func TestUploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "svc-key", "bets")
	if err := c.Upload(context.Background(), "bets/w1/p1/img", "image/png", nil); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestSignURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/object/sign/bets/bets/w1/p1/img" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["expiresIn"] != float64(3600) {
			t.Errorf("unexpected expiresIn %v", req["expiresIn"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"signedURL": "/object/sign/bets/bets/w1/p1/img?token=abc",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "svc-key", "bets")
	url, err := c.SignURL(context.Background(), "bets/w1/p1/img", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	want := srv.URL + "/object/sign/bets/bets/w1/p1/img?token=abc"
	if url != want {
		t.Fatalf("got %q want %q", url, want)
	}
}

func TestSignURLEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "svc-key", "bets")
	if _, err := c.SignURL(context.Background(), "p", time.Hour); err == nil {
		t.Fatal("expected error on empty signed url")
	}
}
