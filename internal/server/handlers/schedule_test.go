package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/localq/localq/api"
	"github.com/localq/localq/internal/server/database"
)

// setupScheduleRouter mounts Schedule and Queue handlers on a chi router
// sharing one temporary database.
func setupScheduleRouter(t *testing.T) chi.Router {
	t.Helper()

	store, err := database.New(t.TempDir(), database.DefaultMaxMessageBytes)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}

	if err := store.Init(); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	v := validator.New()

	s := &Schedule{Store: store, Validator: v, Logger: logger}
	q := &Queue{Store: store, Validator: v, Logger: logger}

	router := chi.NewRouter()
	router.Post("/schedule", s.CreateHandleFunc)
	router.Get("/schedule/{id}", s.GetByIDHandleFunc)
	router.Put("/schedule/{id}", s.PutByIDHandleFunc)
	router.Delete("/schedule/{id}", s.DeleteHandleFunc)
	router.Get("/schedules", s.ListHandleFunc)
	router.Post("/schedules/run-due", s.RunDueHandleFunc)
	router.Post("/queue/{queue}/receive", q.ReceiveHandleFunc)

	return router
}

func TestCreateHandleFunc(t *testing.T) {
	router := setupScheduleRouter(t)

	t.Run("creates an absolute one-shot schedule", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"ping","run_at_epoch":2000000000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
		}

		resp := api.Schedule{}
		_ = json.NewDecoder(rec.Body).Decode(&resp)

		if resp.RunAtEpoch != 2000000000 {
			t.Errorf("expected run_at_epoch 2000000000, got %d", resp.RunAtEpoch)
		}
		if resp.QueueName != defaultQueueName {
			t.Errorf("expected default queue, got %q", resp.QueueName)
		}
		if resp.IntervalSeconds != nil {
			t.Error("one-shot schedule must not carry an interval")
		}
	})

	t.Run("creates a recurring rate schedule", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"tick","queue_name":"cron","schedule_expression":"rate(5 minutes)"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
		}

		resp := api.Schedule{}
		_ = json.NewDecoder(rec.Body).Decode(&resp)

		if resp.IntervalSeconds == nil || *resp.IntervalSeconds != 300 {
			t.Errorf("expected interval 300, got %v", resp.IntervalSeconds)
		}
	})

	t.Run("rejects a malformed expression", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"tick","schedule_expression":"rate(5 fortnights)"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}

		apiErr := api.Error{}
		_ = json.NewDecoder(rec.Body).Decode(&apiErr)

		if apiErr.Kind != string(database.KindInvalidScheduleExpression) {
			t.Errorf("expected kind %q, got %q", database.KindInvalidScheduleExpression, apiErr.Kind)
		}
	})

	t.Run("rejects zero or multiple trigger fields", func(t *testing.T) {
		for _, payload := range []string{
			`{"message_body":"x"}`,
			`{"message_body":"x","run_at_epoch":1,"delay_seconds":1}`,
			`{"message_body":"x","delay_seconds":1,"schedule_expression":"rate(1 hour)"}`,
		} {
			rec := doRequest(t, router, http.MethodPost, "/schedule", payload)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("payload %s: expected 400, got %d", payload, rec.Code)
			}
		}
	})

	t.Run("rejects a missing message body", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/schedule", `{"delay_seconds":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetByIDHandleFunc(t *testing.T) {
	router := setupScheduleRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"ping","delay_seconds":60}`)
	created := api.Schedule{}
	_ = json.NewDecoder(rec.Body).Decode(&created)

	rec = doRequest(t, router, http.MethodGet, "/schedule/"+created.ScheduleID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	found := api.Schedule{}
	_ = json.NewDecoder(rec.Body).Decode(&found)

	if found.ScheduleID != created.ScheduleID {
		t.Errorf("expected %q, got %q", created.ScheduleID, found.ScheduleID)
	}

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/schedule/sch_missing", "")

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestListSchedulesHandleFunc(t *testing.T) {
	router := setupScheduleRouter(t)

	for i := 0; i < 3; i++ {
		payload := fmt.Sprintf(`{"message_body":"m%d","delay_seconds":%d}`, i, (i+1)*60)
		doRequest(t, router, http.MethodPost, "/schedule", payload)
	}

	rec := doRequest(t, router, http.MethodGet, "/schedules", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := api.ListSchedulesResult{}
	_ = json.NewDecoder(rec.Body).Decode(&resp)

	if resp.Count != 3 {
		t.Fatalf("expected 3 schedules, got %d", resp.Count)
	}
	if resp.Schedules[0].RunAtEpoch > resp.Schedules[1].RunAtEpoch {
		t.Error("expected schedules ordered by run time ascending")
	}

	t.Run("honors the limit parameter", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/schedules?limit=2", "")

		resp := api.ListSchedulesResult{}
		_ = json.NewDecoder(rec.Body).Decode(&resp)

		if resp.Count != 2 {
			t.Errorf("expected 2 schedules, got %d", resp.Count)
		}
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/schedules?limit=zero", "")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPutByIDHandleFunc(t *testing.T) {
	router := setupScheduleRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"ping","delay_seconds":60}`)
	created := api.Schedule{}
	_ = json.NewDecoder(rec.Body).Decode(&created)

	rec = doRequest(t, router, http.MethodPut, "/schedule/"+created.ScheduleID, `{"message_body":"pong","queue_name":"updated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	updated := api.Schedule{}
	_ = json.NewDecoder(rec.Body).Decode(&updated)

	if updated.MessageBody != "pong" || updated.QueueName != "updated" {
		t.Errorf("update not applied: %+v", updated)
	}

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/schedule/sch_missing", `{"message_body":"x"}`)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("rejects an empty message body", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/schedule/"+created.ScheduleID, `{"message_body":""}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d. Body: %s", rec.Code, rec.Body.String())
		}

		// The earlier update must survive the rejected one.
		rec = doRequest(t, router, http.MethodGet, "/schedule/"+created.ScheduleID, "")
		current := api.Schedule{}
		_ = json.NewDecoder(rec.Body).Decode(&current)

		if current.MessageBody != "pong" {
			t.Errorf("expected body pong, got %q", current.MessageBody)
		}
	})

	t.Run("rejects an empty queue name", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/schedule/"+created.ScheduleID, `{"queue_name":""}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDeleteScheduleHandleFunc(t *testing.T) {
	router := setupScheduleRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"ping","delay_seconds":60}`)
	created := api.Schedule{}
	_ = json.NewDecoder(rec.Body).Decode(&created)

	rec = doRequest(t, router, http.MethodDelete, "/schedule/"+created.ScheduleID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := api.CancelScheduleResult{}
	_ = json.NewDecoder(rec.Body).Decode(&resp)

	if !resp.Cancelled {
		t.Error("expected schedule to be cancelled")
	}

	t.Run("cancelling again is not an error", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/schedule/"+created.ScheduleID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		resp := api.CancelScheduleResult{}
		_ = json.NewDecoder(rec.Body).Decode(&resp)

		if resp.Cancelled {
			t.Error("expected cancelled false on repeat")
		}
	})
}

func TestRunDueHandleFunc(t *testing.T) {
	router := setupScheduleRouter(t)

	past := time.Now().Unix() - 10
	payload := fmt.Sprintf(`{"message_body":"fire","queue_name":"due","run_at_epoch":%d}`, past)
	doRequest(t, router, http.MethodPost, "/schedule", payload)
	doRequest(t, router, http.MethodPost, "/schedule", `{"message_body":"later","queue_name":"due","delay_seconds":3600}`)

	rec := doRequest(t, router, http.MethodPost, "/schedules/run-due", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	resp := api.RunDueResult{}
	_ = json.NewDecoder(rec.Body).Decode(&resp)

	if resp.Count != 1 {
		t.Fatalf("expected 1 fired schedule, got %d", resp.Count)
	}
	if !resp.DeleteAfter {
		t.Error("expected delete_after to default to true")
	}

	// The payload is now a deliverable message.
	rec = doRequest(t, router, http.MethodPost, "/queue/due/receive", `{}`)
	received := api.ReceiveResult{}
	_ = json.NewDecoder(rec.Body).Decode(&received)

	if received.Count != 1 || received.Messages[0].Body != "fire" {
		t.Errorf("expected the fired payload to be deliverable, got %+v", received)
	}
}
