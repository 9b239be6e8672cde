// Package api holds the wire types shared by the server handlers, the HTTP
// client, and the CLI.
package api

// Error is the structured error payload returned for every failed request.
// Kind carries a machine-readable failure kind (e.g. "MessageTooLarge",
// "NotFound", "ConfirmRequired") so callers can branch without parsing Message.
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// HealthStatus describes database connectivity.
type HealthStatus string

const (
	Ok     HealthStatus = "ok"
	Failed HealthStatus = "failed"
)

// Health is the health check response.
type Health struct {
	Status HealthStatus `json:"status"`
}

// SendRequest enqueues a single message.
type SendRequest struct {
	Body         string `json:"body" validate:"required"`
	DelaySeconds int    `json:"delay_seconds" validate:"min=0"`
}

// SendResult describes a successfully enqueued message.
type SendResult struct {
	MessageID    string `json:"message_id"`
	QueueName    string `json:"queue_name"`
	DelaySeconds int    `json:"delay_seconds"`
}

// BatchMessage is one entry of a batched send. ID is a caller-supplied
// correlation key; when empty, the entry's index is used.
type BatchMessage struct {
	ID           string `json:"id,omitempty"`
	Body         string `json:"body"`
	DelaySeconds int    `json:"delay_seconds,omitempty"`
}

// SendBatchRequest enqueues up to 10 messages at once.
type SendBatchRequest struct {
	Messages []BatchMessage `json:"messages" validate:"required,min=1"`
}

// BatchResultEntry reports the outcome of a single batch entry, keyed by the
// caller-supplied ID (or index).
type BatchResultEntry struct {
	ID            string `json:"id"`
	MessageID     string `json:"message_id,omitempty"`
	ReceiptHandle string `json:"receipt_handle,omitempty"`
	DelaySeconds  int    `json:"delay_seconds,omitempty"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
}

// BatchResult carries per-entry outcomes for send_batch and delete_batch.
// Entries that fail never abort the rest of the batch.
type BatchResult struct {
	QueueName       string             `json:"queue_name,omitempty"`
	Successful      []BatchResultEntry `json:"successful"`
	Failed          []BatchResultEntry `json:"failed"`
	SuccessfulCount int                `json:"successful_count"`
	FailedCount     int                `json:"failed_count"`
}

// ReceiveRequest checks out up to MaxMessages deliverable messages, hiding
// each from other receivers for VisibilityTimeout seconds. A nil
// VisibilityTimeout defaults to 30; an explicit 0 makes delivery
// non-exclusive.
type ReceiveRequest struct {
	MaxMessages       int  `json:"max_messages,omitempty" validate:"min=0"`
	VisibilityTimeout *int `json:"visibility_timeout,omitempty" validate:"omitempty,min=0"`
}

// ReceivedMessage is one checked-out message. The receipt handle is required
// to delete the message or change its visibility.
type ReceivedMessage struct {
	MessageID     string `json:"message_id"`
	ReceiptHandle string `json:"receipt_handle"`
	Body          string `json:"body"`
	QueueName     string `json:"queue_name"`
}

// ReceiveResult is the response to a receive call. Count may be zero; receive
// never blocks waiting for a future message.
type ReceiveResult struct {
	QueueName         string            `json:"queue_name"`
	Messages          []ReceivedMessage `json:"messages"`
	Count             int               `json:"count"`
	VisibilityTimeout int               `json:"visibility_timeout"`
}

// DeleteRequest deletes a message by its receipt handle.
type DeleteRequest struct {
	ReceiptHandle string `json:"receipt_handle" validate:"required"`
}

// DeleteResult reports whether a message matched the receipt handle.
type DeleteResult struct {
	ReceiptHandle string `json:"receipt_handle"`
	Deleted       bool   `json:"deleted"`
}

// DeleteBatchRequest deletes up to 10 messages by receipt handle.
type DeleteBatchRequest struct {
	ReceiptHandles []string `json:"receipt_handles" validate:"required,min=1"`
}

// PurgeResult reports how many messages a purge removed. QueueName is "*"
// when all queues were purged.
type PurgeResult struct {
	QueueName string `json:"queue_name"`
	Purged    int64  `json:"purged"`
}

// QueueAttributes carries the message counts for one queue.
type QueueAttributes struct {
	QueueName string `json:"queue_name"`
	Visible   int64  `json:"visible"`
	InFlight  int64  `json:"in_flight"`
	Total     int64  `json:"total"`
}

// ListQueuesResult lists the distinct queue names present in the store.
type ListQueuesResult struct {
	Queues []string `json:"queues"`
	Count  int      `json:"count"`
}

// ChangeVisibilityRequest extends or shortens an in-flight message's
// exclusivity window. A timeout of 0 makes it immediately redeliverable.
type ChangeVisibilityRequest struct {
	ReceiptHandle     string `json:"receipt_handle" validate:"required"`
	VisibilityTimeout int    `json:"visibility_timeout" validate:"min=0"`
}

// ChangeVisibilityResult reports whether a message matched the receipt handle.
type ChangeVisibilityResult struct {
	ReceiptHandle     string `json:"receipt_handle"`
	VisibilityTimeout int    `json:"visibility_timeout"`
	Updated           bool   `json:"updated"`
}

// Schedule is a persisted delivery intent. IntervalSeconds set means the
// schedule is recurring; nil means one-shot.
type Schedule struct {
	ScheduleID         string  `json:"schedule_id"`
	ScheduleName       *string `json:"schedule_name,omitempty"`
	RunAtEpoch         int64   `json:"run_at_epoch"`
	QueueName          string  `json:"queue_name"`
	MessageBody        string  `json:"message_body"`
	CreatedAt          int64   `json:"created_at"`
	FiredAt            *int64  `json:"fired_at,omitempty"`
	ScheduleExpression *string `json:"schedule_expression,omitempty"`
	IntervalSeconds    *int64  `json:"interval_seconds,omitempty"`
	LastFiredAt        *int64  `json:"last_fired_at,omitempty"`
}

// CreateScheduleRequest creates a schedule. Exactly one of RunAtEpoch,
// DelaySeconds, or ScheduleExpression must be set: an absolute one-shot, a
// relative one-shot, or a recurring rate(N unit) schedule respectively.
type CreateScheduleRequest struct {
	QueueName          string  `json:"queue_name,omitempty"`
	MessageBody        string  `json:"message_body" validate:"required"`
	ScheduleName       string  `json:"schedule_name,omitempty"`
	RunAtEpoch         *int64  `json:"run_at_epoch,omitempty"`
	DelaySeconds       *int64  `json:"delay_seconds,omitempty"`
	ScheduleExpression *string `json:"schedule_expression,omitempty"`
}

// UpdateScheduleRequest partially updates a schedule. Nil fields are left
// untouched. Any time-affecting field clears the fired marker.
type UpdateScheduleRequest struct {
	ScheduleName       *string `json:"schedule_name,omitempty"`
	QueueName          *string `json:"queue_name,omitempty" validate:"omitempty,min=1"`
	MessageBody        *string `json:"message_body,omitempty" validate:"omitempty,min=1"`
	RunAtEpoch         *int64  `json:"run_at_epoch,omitempty"`
	DelaySeconds       *int64  `json:"delay_seconds,omitempty"`
	ScheduleExpression *string `json:"schedule_expression,omitempty"`
}

// CancelScheduleResult reports whether the schedule existed.
type CancelScheduleResult struct {
	ScheduleID string `json:"schedule_id"`
	Cancelled  bool   `json:"cancelled"`
}

// ListSchedulesResult lists schedules ordered by run time ascending.
type ListSchedulesResult struct {
	Schedules []Schedule `json:"schedules"`
	Count     int        `json:"count"`
}

// RunDueRequest fires due schedules. DeleteAfter nil defaults to true.
type RunDueRequest struct {
	MaxToRun    int   `json:"max_to_run,omitempty" validate:"min=0"`
	DeleteAfter *bool `json:"delete_after,omitempty"`
}

// FiredSchedule pairs a fired schedule with the message it enqueued.
type FiredSchedule struct {
	ScheduleID string `json:"schedule_id"`
	MessageID  string `json:"message_id"`
}

// RunDueResult reports one sweep of the scheduler.
type RunDueResult struct {
	Fired       []FiredSchedule `json:"fired"`
	Count       int             `json:"count"`
	Now         int64           `json:"now"`
	DeleteAfter bool            `json:"delete_after"`
}
