package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/localq/localq/api"
)

func Test_ScheduleInCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule" {
			t.Errorf("expected path %q, got %q", "/schedule", r.URL.Path)
		}

		var body api.CreateScheduleRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.DelaySeconds == nil || *body.DelaySeconds != 90 {
			t.Errorf("expected delay_seconds 90, got %v", body.DelaySeconds)
		}
		if body.MessageBody != "reminder" {
			t.Errorf("expected body %q, got %q", "reminder", body.MessageBody)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.Schedule{
			ScheduleID:  "sch_1",
			QueueName:   body.QueueName,
			MessageBody: body.MessageBody,
		})
	}))
	defer server.Close()

	output, err := executeCommand("schedule", "in", "90", "-b", "reminder", "--url", server.URL, "--color=false")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"schedule_id": "sch_1"`) {
		t.Errorf("expected output to contain %q, got %q", `"schedule_id": "sch_1"`, output)
	}
}

func Test_ScheduleRateCommand_Invalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.Error{
			Code:    400,
			Kind:    "InvalidScheduleExpression",
			Message: "unsupported schedule expression",
		})
	}))
	defer server.Close()

	output, err := executeCommand("schedule", "rate", "rate(5 fortnights)", "-b", "tick", "--url", server.URL, "--color=false")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"kind": "InvalidScheduleExpression"`) {
		t.Errorf("expected output to contain %q, got %q", `"kind": "InvalidScheduleExpression"`, output)
	}
}

func Test_ScheduleGetCommand_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.Error{
			Code:    404,
			Message: "schedule not found",
		})
	}))
	defer server.Close()

	output, err := executeCommand("schedule", "get", "sch_missing", "--url", server.URL, "--color=false")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"message": "schedule not found"`) {
		t.Errorf("expected output to contain %q, got %q", `"message": "schedule not found"`, output)
	}
}

func Test_ScheduleCancelCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule/sch_1" {
			t.Errorf("expected path %q, got %q", "/schedule/sch_1", r.URL.Path)
		}
		if r.Method != http.MethodDelete {
			t.Errorf("expected method %q, got %q", http.MethodDelete, r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.CancelScheduleResult{
			ScheduleID: "sch_1",
			Cancelled:  true,
		})
	}))
	defer server.Close()

	output, err := executeCommand("schedule", "cancel", "sch_1", "--url", server.URL, "--color=false")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"cancelled": true`) {
		t.Errorf("expected output to contain %q, got %q", `"cancelled": true`, output)
	}
}

func Test_RunDueCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedules/run-due" {
			t.Errorf("expected path %q, got %q", "/schedules/run-due", r.URL.Path)
		}

		var body api.RunDueRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.DeleteAfter == nil || *body.DeleteAfter {
			t.Errorf("expected delete_after false, got %v", body.DeleteAfter)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.RunDueResult{
			Fired: []api.FiredSchedule{{ScheduleID: "sch_1", MessageID: "msg_1"}},
			Count: 1,
		})
	}))
	defer server.Close()

	output, err := executeCommand("schedule", "run-due", "--keep-history", "--url", server.URL, "--color=false")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"schedule_id": "sch_1"`) {
		t.Errorf("expected output to contain %q, got %q", `"schedule_id": "sch_1"`, output)
	}
}
