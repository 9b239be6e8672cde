package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/localq/localq/api"
	"github.com/localq/localq/internal/server/database"
)

const (
	// Messages land on this queue when the schedule doesn't name one.
	defaultQueueName = "default"
	// Cap the work of one scheduler sweep.
	defaultMaxToRun = 50
	// List size cap when the caller doesn't pass a limit.
	defaultListLimit = 100
)

// Schedule handles delayed and recurring delivery requests.
type Schedule struct {
	Store     database.SchedulerStore
	Validator *validator.Validate
	Logger    *slog.Logger
}

// CreateHandleFunc creates a schedule. Exactly one of run_at_epoch,
// delay_seconds, or schedule_expression selects the schedule type.
func (s *Schedule) CreateHandleFunc(w http.ResponseWriter, r *http.Request) {
	var req api.CreateScheduleRequest
	if err := decodeAndValidate(s.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	set := 0
	for _, ok := range []bool{req.RunAtEpoch != nil, req.DelaySeconds != nil, req.ScheduleExpression != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue),
			"exactly one of run_at_epoch, delay_seconds, or schedule_expression is required")
		return
	}

	queueName := req.QueueName
	if queueName == "" {
		queueName = defaultQueueName
	}

	var (
		created api.Schedule
		err     error
	)
	switch {
	case req.RunAtEpoch != nil:
		created, err = s.Store.ScheduleAt(*req.RunAtEpoch, req.MessageBody, queueName, req.ScheduleName)
	case req.DelaySeconds != nil:
		created, err = s.Store.ScheduleIn(*req.DelaySeconds, req.MessageBody, queueName, req.ScheduleName)
	default:
		created, err = s.Store.ScheduleRate(*req.ScheduleExpression, req.MessageBody, queueName, req.ScheduleName)
	}
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetByIDHandleFunc retrieves a single schedule.
func (s *Schedule) GetByIDHandleFunc(w http.ResponseWriter, r *http.Request) {
	found, err := s.Store.GetSchedule(chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, found)
}

// ListHandleFunc lists schedules ordered by run time. Fired one-shot
// schedules are excluded unless ?include_fired=true.
func (s *Schedule) ListHandleFunc(w http.ResponseWriter, r *http.Request) {
	includeFired := r.URL.Query().Get("include_fired") == "true"

	limit, err := parseLimit(r, "limit", defaultListLimit)
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	result, err := s.Store.ListSchedules(includeFired, limit)
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PutByIDHandleFunc partially updates a schedule.
func (s *Schedule) PutByIDHandleFunc(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateScheduleRequest
	if err := decodeAndValidate(s.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	updated, err := s.Store.UpdateSchedule(chi.URLParam(r, "id"), req)
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteHandleFunc cancels a schedule. Cancelling an unknown schedule is not
// an error.
func (s *Schedule) DeleteHandleFunc(w http.ResponseWriter, r *http.Request) {
	result, err := s.Store.CancelSchedule(chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RunDueHandleFunc fires every due schedule, enqueueing each payload onto its
// queue. The scheduler worker calls the same store operation on a timer; this
// endpoint exists for callers driving the clock themselves.
func (s *Schedule) RunDueHandleFunc(w http.ResponseWriter, r *http.Request) {
	req := api.RunDueRequest{MaxToRun: defaultMaxToRun}
	if r.ContentLength != 0 {
		if err := decodeAndValidate(s.Validator, r, &req); err != nil {
			sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
			return
		}
	}

	if req.MaxToRun == 0 {
		req.MaxToRun = defaultMaxToRun
	}

	// Retire fired one-shot schedules unless the caller wants them kept as
	// history.
	deleteAfter := true
	if req.DeleteAfter != nil {
		deleteAfter = *req.DeleteAfter
	}

	result, err := s.Store.RunDue(req.MaxToRun, deleteAfter)
	if err != nil {
		sendStoreError(w, s.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
