package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/localq/localq/api"
	"github.com/localq/localq/internal/server/database"
)

// Error messages
const errLimitValue = "Invalid limit value"

// Hide received messages from other receivers for 30s unless told otherwise.
const defaultVisibilityTimeout = 30

// Queue handles message queue requests.
type Queue struct {
	Store     database.QueueStore
	Validator *validator.Validate
	Logger    *slog.Logger
}

// SendHandleFunc enqueues a single message.
func (q *Queue) SendHandleFunc(w http.ResponseWriter, r *http.Request) {
	queueName := chi.URLParam(r, "queue")

	var req api.SendRequest
	if err := decodeAndValidate(q.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	result, err := q.Store.Send(queueName, req.Body, req.DelaySeconds)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// SendBatchHandleFunc enqueues up to 10 messages. Individual entry failures
// are reported per entry and never abort the rest of the batch.
func (q *Queue) SendBatchHandleFunc(w http.ResponseWriter, r *http.Request) {
	queueName := chi.URLParam(r, "queue")

	var req api.SendBatchRequest
	if err := decodeAndValidate(q.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	result, err := q.Store.SendBatch(queueName, req.Messages)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	// 200 rather than 201: entries can fail individually.
	writeJSON(w, http.StatusOK, result)
}

// ReceiveHandleFunc checks out deliverable messages, oldest first.
func (q *Queue) ReceiveHandleFunc(w http.ResponseWriter, r *http.Request) {
	queueName := chi.URLParam(r, "queue")

	var req api.ReceiveRequest
	if err := decodeAndValidate(q.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	// An explicit 0 is meaningful: the message stays deliverable to others.
	visibilityTimeout := defaultVisibilityTimeout
	if req.VisibilityTimeout != nil {
		visibilityTimeout = *req.VisibilityTimeout
	}

	result, err := q.Store.Receive(queueName, req.MaxMessages, visibilityTimeout)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteHandleFunc deletes a message by its receipt handle.
func (q *Queue) DeleteHandleFunc(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteRequest
	if err := decodeAndValidate(q.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	result, err := q.Store.DeleteMessage(req.ReceiptHandle)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteBatchHandleFunc deletes up to 10 messages by receipt handle.
func (q *Queue) DeleteBatchHandleFunc(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteBatchRequest
	if err := decodeAndValidate(q.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	result, err := q.Store.DeleteBatch(req.ReceiptHandles)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PurgeQueueHandleFunc deletes every message in one queue.
func (q *Queue) PurgeQueueHandleFunc(w http.ResponseWriter, r *http.Request) {
	queueName := chi.URLParam(r, "queue")

	result, err := q.Store.Purge(queueName, false)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PurgeAllHandleFunc deletes every message in every queue. Requires
// ?confirm=true.
func (q *Queue) PurgeAllHandleFunc(w http.ResponseWriter, r *http.Request) {
	confirm := r.URL.Query().Get("confirm") == "true"

	result, err := q.Store.Purge("", confirm)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AttributesHandleFunc reports visible, in-flight, and total message counts.
func (q *Queue) AttributesHandleFunc(w http.ResponseWriter, r *http.Request) {
	queueName := chi.URLParam(r, "queue")

	result, err := q.Store.QueueAttributes(queueName)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListHandleFunc lists the distinct queue names present.
func (q *Queue) ListHandleFunc(w http.ResponseWriter, r *http.Request) {
	result, err := q.Store.ListQueues()
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ChangeVisibilityHandleFunc resets an in-flight message's exclusivity window.
func (q *Queue) ChangeVisibilityHandleFunc(w http.ResponseWriter, r *http.Request) {
	var req api.ChangeVisibilityRequest
	if err := decodeAndValidate(q.Validator, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, string(database.KindInvalidParameterValue), err.Error())
		return
	}

	result, err := q.Store.ChangeVisibility(req.ReceiptHandle, req.VisibilityTimeout)
	if err != nil {
		sendStoreError(w, q.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseLimit reads an optional positive integer query parameter.
func parseLimit(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, database.NewError(database.KindInvalidParameterValue, "%s: %q", errLimitValue, raw)
	}

	return val, nil
}
