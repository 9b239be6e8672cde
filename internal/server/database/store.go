package database

import "github.com/localq/localq/api"

// QueueStore defines the at-least-once message queue operations. Queues are
// implicit: a queue exists exactly as long as it holds messages.
type QueueStore interface {
	// Send enqueues one message, hidden for delaySeconds before delivery.
	Send(queueName, body string, delaySeconds int) (api.SendResult, error)
	// SendBatch enqueues up to 10 messages, reporting per-entry outcomes.
	SendBatch(queueName string, messages []api.BatchMessage) (api.BatchResult, error)
	// Receive checks out up to maxMessages deliverable messages, oldest first,
	// stamping each with a fresh receipt handle valid for visibilityTimeout seconds.
	Receive(queueName string, maxMessages, visibilityTimeout int) (api.ReceiveResult, error)
	// DeleteMessage removes the message whose receipt handle matches exactly.
	DeleteMessage(receiptHandle string) (api.DeleteResult, error)
	// DeleteBatch removes up to 10 messages by receipt handle, reporting per-entry outcomes.
	DeleteBatch(receiptHandles []string) (api.BatchResult, error)
	// Purge deletes every message in queueName, or in all queues when
	// queueName is empty (which requires confirm).
	Purge(queueName string, confirm bool) (api.PurgeResult, error)
	// QueueAttributes counts visible, in-flight, and total messages for a queue.
	QueueAttributes(queueName string) (api.QueueAttributes, error)
	// ListQueues returns the distinct queue names present, sorted.
	ListQueues() (api.ListQueuesResult, error)
	// ChangeVisibility resets the receipt expiry to now plus visibilityTimeout.
	ChangeVisibility(receiptHandle string, visibilityTimeout int) (api.ChangeVisibilityResult, error)
}

// SchedulerStore defines the schedule operations. A schedule with
// interval_seconds set is recurring and re-arms on every fire; otherwise it
// is one-shot and retires after firing.
type SchedulerStore interface {
	// ScheduleAt creates a one-shot schedule due at an absolute epoch time.
	ScheduleAt(runAtEpoch int64, messageBody, queueName, scheduleName string) (api.Schedule, error)
	// ScheduleIn creates a one-shot schedule due delaySeconds from now.
	ScheduleIn(delaySeconds int64, messageBody, queueName, scheduleName string) (api.Schedule, error)
	// ScheduleRate creates a recurring schedule from a rate(N unit) expression.
	// The first fire is one interval out.
	ScheduleRate(scheduleExpression, messageBody, queueName, scheduleName string) (api.Schedule, error)
	// GetSchedule retrieves a schedule by ID.
	GetSchedule(scheduleID string) (api.Schedule, error)
	// ListSchedules lists schedules ordered by run time ascending, excluding
	// fired one-shot schedules unless includeFired is set.
	ListSchedules(includeFired bool, limit int) (api.ListSchedulesResult, error)
	// UpdateSchedule applies a partial update. Time-affecting fields clear the
	// fired marker; a new expression keeps the schedule recurring.
	UpdateSchedule(scheduleID string, upd api.UpdateScheduleRequest) (api.Schedule, error)
	// CancelSchedule deletes a schedule, reporting whether it existed.
	CancelSchedule(scheduleID string) (api.CancelScheduleResult, error)
	// RunDue fires due schedules, enqueueing each payload and then retiring
	// (one-shot) or advancing (recurring) the schedule. A failed send leaves
	// the schedule untouched for the next sweep.
	RunDue(maxToRun int, deleteAfter bool) (api.RunDueResult, error)
}

// Store is the full surface of the backing store.
type Store interface {
	QueueStore
	SchedulerStore
	// Init creates tables and applies additive migrations.
	Init() error
	// Ping verifies the database connection is alive.
	Ping() error
	// Close terminates the database connection.
	Close() error
}
