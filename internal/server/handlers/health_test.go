package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localq/localq/api"
	"github.com/localq/localq/internal/server/database"
)

func TestHealthGetHandleFunc(t *testing.T) {
	store, err := database.New(t.TempDir(), database.DefaultMaxMessageBytes)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	h := &Health{Store: store}

	t.Run("reports ok while the database is reachable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		h.GetHandleFunc(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		resp := api.Health{}
		_ = json.NewDecoder(rec.Body).Decode(&resp)

		if resp.Status != api.Ok {
			t.Errorf("expected status ok, got %q", resp.Status)
		}
	})

	t.Run("reports failed once the database is closed", func(t *testing.T) {
		_ = store.Close()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		h.GetHandleFunc(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}

		resp := api.Health{}
		_ = json.NewDecoder(rec.Body).Decode(&resp)

		if resp.Status != api.Failed {
			t.Errorf("expected status failed, got %q", resp.Status)
		}
	})
}
