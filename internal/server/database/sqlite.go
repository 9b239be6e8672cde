package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localq/localq/api"

	// Import the sqlite driver that requires no CGO deps
	_ "modernc.org/sqlite"
)

const (
	sqliteDBName = "localq_sqlite.db"

	// InMemoryPath creates a private ephemeral store with no persistence.
	InMemoryPath = ":memory:"

	// DefaultMaxMessageBytes bounds the UTF-8 byte length of a message body.
	DefaultMaxMessageBytes = 262144

	// Batched send/delete accept at most this many entries per call.
	maxBatchSize = 10
	// Receive returns at most this many messages per call.
	maxReceiveMessages = 10
	// List/sweep operations are capped at this many rows per call.
	maxListLimit = 500

	// messageColumns centralizes the field list to prevent Scan errors
	messageColumns = `id, queue_name, body, created_at, visible_at, receipt_handle, receipt_expires_at`
	// scheduleColumns centralizes the field list to prevent Scan errors
	scheduleColumns = `schedule_id, schedule_name, run_at_epoch, queue_name, message_body, created_at, fired_at, schedule_expression, interval_seconds, last_fired_at`
)

// SQLiteStore is an implementation of the Store interface for SQLite.
type SQLiteStore struct {
	db              *sql.DB
	maxMessageBytes int

	// now is swappable so tests can move the clock.
	now func() time.Time
}

// New initializes a new SQLiteStore rooted at dbPath. dbPath is a directory
// holding the database file, or InMemoryPath for an ephemeral store.
// maxMessageBytes <= 0 selects the default.
func New(dbPath string, maxMessageBytes int) (Store, error) {
	if dbPath == "" {
		return nil, NewError(KindInvalidParameterValue, "db path is required")
	}

	db, err := sqliteConnect(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxMessageBytes <= 0 {
		maxMessageBytes = DefaultMaxMessageBytes
	}

	return &SQLiteStore{
		db:              db,
		maxMessageBytes: maxMessageBytes,
		now:             time.Now,
	}, nil
}

// Init creates the necessary database tables if they do not already exist and
// applies additive migrations. Never destructive.
func (s *SQLiteStore) Init() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	existing := map[string]bool{}
	rows, err := s.db.Query(`PRAGMA table_info(schedules)`)
	if err != nil {
		return fmt.Errorf("failed to inspect schedules table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Deterministic order keeps failures reproducible.
	missing := []string{}
	for col := range scheduleMigrations {
		if !existing[col] {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)

	for _, col := range missing {
		if _, err := s.db.Exec(scheduleMigrations[col]); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col, err)
		}
	}

	return nil
}

// Send validates and inserts a single message. The message becomes
// deliverable at now + delaySeconds.
func (s *SQLiteStore) Send(queueName, body string, delaySeconds int) (api.SendResult, error) {
	if body == "" {
		return api.SendResult{}, NewError(KindInvalidParameterValue, "body is required")
	}
	if len(body) > s.maxMessageBytes {
		return api.SendResult{}, NewError(KindMessageTooLarge, "body is %d bytes, exceeds max_message_bytes=%d", len(body), s.maxMessageBytes)
	}

	if delaySeconds < 0 {
		delaySeconds = 0
	}

	now := s.now().Unix()
	id := newID("msg_")

	_, err := s.db.Exec(
		`INSERT INTO messages (id, queue_name, body, created_at, visible_at) VALUES (?, ?, ?, ?, ?)`,
		id, queueName, body, now, now+int64(delaySeconds),
	)
	if err != nil {
		return api.SendResult{}, err
	}

	return api.SendResult{
		MessageID:    id,
		QueueName:    queueName,
		DelaySeconds: delaySeconds,
	}, nil
}

// SendBatch inserts up to 10 messages. Entries that fail validation are
// reported individually without aborting the rest of the batch.
func (s *SQLiteStore) SendBatch(queueName string, messages []api.BatchMessage) (api.BatchResult, error) {
	if len(messages) == 0 {
		return api.BatchResult{}, NewError(KindInvalidParameterValue, "messages is required")
	}
	if len(messages) > maxBatchSize {
		return api.BatchResult{}, NewError(KindLimitExceeded, "send_batch supports up to %d messages", maxBatchSize)
	}

	now := s.now().Unix()
	result := api.BatchResult{
		QueueName:  queueName,
		Successful: []api.BatchResultEntry{},
		Failed:     []api.BatchResultEntry{},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return api.BatchResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	for i, msg := range messages {
		entryID := msg.ID
		if entryID == "" {
			entryID = strconv.Itoa(i)
		}

		if msg.Body == "" {
			result.Failed = append(result.Failed, api.BatchResultEntry{
				ID:      entryID,
				Code:    string(KindInvalidParameterValue),
				Message: "missing body",
			})
			continue
		}
		if len(msg.Body) > s.maxMessageBytes {
			result.Failed = append(result.Failed, api.BatchResultEntry{
				ID:      entryID,
				Code:    string(KindMessageTooLarge),
				Message: fmt.Sprintf("body is %d bytes, exceeds max_message_bytes=%d", len(msg.Body), s.maxMessageBytes),
			})
			continue
		}

		delay := msg.DelaySeconds
		if delay < 0 {
			delay = 0
		}

		id := newID("msg_")
		_, err := tx.Exec(
			`INSERT INTO messages (id, queue_name, body, created_at, visible_at) VALUES (?, ?, ?, ?, ?)`,
			id, queueName, msg.Body, now, now+int64(delay),
		)
		if err != nil {
			return api.BatchResult{}, err
		}

		result.Successful = append(result.Successful, api.BatchResultEntry{
			ID:           entryID,
			MessageID:    id,
			DelaySeconds: delay,
		})
	}

	if err := tx.Commit(); err != nil {
		return api.BatchResult{}, err
	}

	result.SuccessfulCount = len(result.Successful)
	result.FailedCount = len(result.Failed)

	return result, nil
}

// Receive checks out up to maxMessages deliverable messages, oldest first.
// The eligibility check and receipt stamp run in a single transaction so
// concurrent receivers cannot both claim the same row.
func (s *SQLiteStore) Receive(queueName string, maxMessages, visibilityTimeout int) (api.ReceiveResult, error) {
	if maxMessages < 1 {
		maxMessages = 1
	}
	if maxMessages > maxReceiveMessages {
		maxMessages = maxReceiveMessages
	}
	if visibilityTimeout < 0 {
		visibilityTimeout = 0
	}

	now := s.now().Unix()

	tx, err := s.db.Begin()
	if err != nil {
		return api.ReceiveResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(
		`SELECT id, body, queue_name FROM messages
		 WHERE queue_name = ?
		   AND visible_at <= ?
		   AND (receipt_handle IS NULL OR receipt_expires_at IS NULL OR receipt_expires_at <= ?)
		 ORDER BY created_at ASC
		 LIMIT ?`,
		queueName, now, now, maxMessages,
	)
	if err != nil {
		return api.ReceiveResult{}, err
	}

	received := []api.ReceivedMessage{}
	for rows.Next() {
		var m api.ReceivedMessage
		if err := rows.Scan(&m.MessageID, &m.Body, &m.QueueName); err != nil {
			_ = rows.Close()
			return api.ReceiveResult{}, fmt.Errorf("scan error: %w", err)
		}
		received = append(received, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return api.ReceiveResult{}, err
	}
	_ = rows.Close()

	expires := now + int64(visibilityTimeout)
	for i := range received {
		handle := newID("rcpt_")
		_, err := tx.Exec(
			`UPDATE messages SET receipt_handle = ?, receipt_expires_at = ? WHERE id = ?`,
			handle, expires, received[i].MessageID,
		)
		if err != nil {
			return api.ReceiveResult{}, err
		}
		received[i].ReceiptHandle = handle
	}

	if err := tx.Commit(); err != nil {
		return api.ReceiveResult{}, err
	}

	return api.ReceiveResult{
		QueueName:         queueName,
		Messages:          received,
		Count:             len(received),
		VisibilityTimeout: visibilityTimeout,
	}, nil
}

// DeleteMessage removes the message whose receipt handle matches exactly.
// Matching is not conditioned on expiry; a handle already superseded by a
// newer receive simply no longer matches.
func (s *SQLiteStore) DeleteMessage(receiptHandle string) (api.DeleteResult, error) {
	if receiptHandle == "" {
		return api.DeleteResult{}, NewError(KindInvalidParameterValue, "receipt_handle is required")
	}

	res, err := s.db.Exec(`DELETE FROM messages WHERE receipt_handle = ?`, receiptHandle)
	if err != nil {
		return api.DeleteResult{}, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return api.DeleteResult{}, err
	}

	return api.DeleteResult{
		ReceiptHandle: receiptHandle,
		Deleted:       deleted > 0,
	}, nil
}

// DeleteBatch deletes up to 10 messages by receipt handle, reporting
// per-handle success or NotFound.
func (s *SQLiteStore) DeleteBatch(receiptHandles []string) (api.BatchResult, error) {
	if len(receiptHandles) == 0 {
		return api.BatchResult{}, NewError(KindInvalidParameterValue, "receipt_handles is required")
	}
	if len(receiptHandles) > maxBatchSize {
		return api.BatchResult{}, NewError(KindLimitExceeded, "delete_batch supports up to %d receipt_handles", maxBatchSize)
	}

	result := api.BatchResult{
		Successful: []api.BatchResultEntry{},
		Failed:     []api.BatchResultEntry{},
	}

	for i, handle := range receiptHandles {
		entryID := strconv.Itoa(i)

		if handle == "" {
			result.Failed = append(result.Failed, api.BatchResultEntry{
				ID:      entryID,
				Code:    string(KindInvalidParameterValue),
				Message: "empty receipt_handle",
			})
			continue
		}

		res, err := s.db.Exec(`DELETE FROM messages WHERE receipt_handle = ?`, handle)
		if err != nil {
			return api.BatchResult{}, err
		}

		deleted, err := res.RowsAffected()
		if err != nil {
			return api.BatchResult{}, err
		}

		if deleted > 0 {
			result.Successful = append(result.Successful, api.BatchResultEntry{
				ID:            entryID,
				ReceiptHandle: handle,
			})
		} else {
			result.Failed = append(result.Failed, api.BatchResultEntry{
				ID:            entryID,
				ReceiptHandle: handle,
				Code:          string(KindNotFound),
				Message:       "receipt_handle not found",
			})
		}
	}

	result.SuccessfulCount = len(result.Successful)
	result.FailedCount = len(result.Failed)

	return result, nil
}

// Purge deletes all messages in a queue, or across every queue when
// queueName is empty. Purging all queues requires explicit confirmation.
func (s *SQLiteStore) Purge(queueName string, confirm bool) (api.PurgeResult, error) {
	var res sql.Result
	var err error

	if queueName == "" {
		if !confirm {
			return api.PurgeResult{}, NewError(KindConfirmRequired, "confirm=true is required to purge all queues")
		}
		res, err = s.db.Exec(`DELETE FROM messages`)
	} else {
		res, err = s.db.Exec(`DELETE FROM messages WHERE queue_name = ?`, queueName)
	}
	if err != nil {
		return api.PurgeResult{}, err
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return api.PurgeResult{}, err
	}

	name := queueName
	if name == "" {
		name = "*"
	}

	return api.PurgeResult{QueueName: name, Purged: purged}, nil
}

// QueueAttributes counts deliverable, in-flight, and total messages for a queue.
func (s *SQLiteStore) QueueAttributes(queueName string) (api.QueueAttributes, error) {
	now := s.now().Unix()
	attrs := api.QueueAttributes{QueueName: queueName}

	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages
		 WHERE queue_name = ?
		   AND visible_at <= ?
		   AND (receipt_handle IS NULL OR receipt_expires_at IS NULL OR receipt_expires_at <= ?)`,
		queueName, now, now,
	).Scan(&attrs.Visible)
	if err != nil {
		return api.QueueAttributes{}, err
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM messages
		 WHERE queue_name = ?
		   AND receipt_handle IS NOT NULL
		   AND receipt_expires_at IS NOT NULL
		   AND receipt_expires_at > ?`,
		queueName, now,
	).Scan(&attrs.InFlight)
	if err != nil {
		return api.QueueAttributes{}, err
	}

	err = s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE queue_name = ?`, queueName).Scan(&attrs.Total)
	if err != nil {
		return api.QueueAttributes{}, err
	}

	return attrs, nil
}

// ListQueues returns the distinct queue names present in the store, sorted.
func (s *SQLiteStore) ListQueues() (api.ListQueuesResult, error) {
	rows, err := s.db.Query(`SELECT DISTINCT queue_name FROM messages ORDER BY queue_name`)
	if err != nil {
		return api.ListQueuesResult{}, err
	}
	defer func() { _ = rows.Close() }()

	queues := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return api.ListQueuesResult{}, fmt.Errorf("scan error: %w", err)
		}
		queues = append(queues, name)
	}
	if err := rows.Err(); err != nil {
		return api.ListQueuesResult{}, err
	}

	return api.ListQueuesResult{Queues: queues, Count: len(queues)}, nil
}

// ChangeVisibility resets the receipt expiry to now plus visibilityTimeout,
// extending or shortening the current consumer's exclusivity window.
func (s *SQLiteStore) ChangeVisibility(receiptHandle string, visibilityTimeout int) (api.ChangeVisibilityResult, error) {
	if receiptHandle == "" {
		return api.ChangeVisibilityResult{}, NewError(KindInvalidParameterValue, "receipt_handle is required")
	}
	if visibilityTimeout < 0 {
		visibilityTimeout = 0
	}

	expires := s.now().Unix() + int64(visibilityTimeout)

	res, err := s.db.Exec(`UPDATE messages SET receipt_expires_at = ? WHERE receipt_handle = ?`, expires, receiptHandle)
	if err != nil {
		return api.ChangeVisibilityResult{}, err
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return api.ChangeVisibilityResult{}, err
	}

	return api.ChangeVisibilityResult{
		ReceiptHandle:     receiptHandle,
		VisibilityTimeout: visibilityTimeout,
		Updated:           updated > 0,
	}, nil
}

// ScheduleAt creates a one-shot schedule due at an absolute epoch time.
func (s *SQLiteStore) ScheduleAt(runAtEpoch int64, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	return s.insertOneShot(runAtEpoch, messageBody, queueName, scheduleName)
}

// ScheduleIn creates a one-shot schedule due delaySeconds from now.
func (s *SQLiteStore) ScheduleIn(delaySeconds int64, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	if delaySeconds < 0 {
		delaySeconds = 0
	}
	return s.insertOneShot(s.now().Unix()+delaySeconds, messageBody, queueName, scheduleName)
}

func (s *SQLiteStore) insertOneShot(runAtEpoch int64, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	if messageBody == "" {
		return api.Schedule{}, NewError(KindInvalidParameterValue, "message_body is required")
	}

	id := newID("sch_")
	now := s.now().Unix()

	_, err := s.db.Exec(
		`INSERT INTO schedules (schedule_id, schedule_name, run_at_epoch, queue_name, message_body, created_at, fired_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		id, nullableString(scheduleName), runAtEpoch, queueName, messageBody, now,
	)
	if err != nil {
		return api.Schedule{}, err
	}

	return s.GetSchedule(id)
}

// ScheduleRate creates a recurring schedule from a rate(N unit) expression.
// The first fire is one interval out, not immediate.
func (s *SQLiteStore) ScheduleRate(scheduleExpression, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	if scheduleExpression == "" {
		return api.Schedule{}, NewError(KindInvalidParameterValue, `schedule_expression is required (e.g. "rate(5 minutes)")`)
	}
	if messageBody == "" {
		return api.Schedule{}, NewError(KindInvalidParameterValue, "message_body is required")
	}

	interval, err := ParseRateExpression(scheduleExpression)
	if err != nil {
		return api.Schedule{}, err
	}

	id := newID("sch_")
	now := s.now().Unix()

	_, err = s.db.Exec(
		`INSERT INTO schedules (schedule_id, schedule_name, run_at_epoch, queue_name, message_body, created_at, fired_at, schedule_expression, interval_seconds, last_fired_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, NULL)`,
		id, nullableString(scheduleName), now+interval, queueName, messageBody, now, scheduleExpression, interval,
	)
	if err != nil {
		return api.Schedule{}, err
	}

	return s.GetSchedule(id)
}

// GetSchedule returns a single schedule by its ID.
func (s *SQLiteStore) GetSchedule(scheduleID string) (api.Schedule, error) {
	if scheduleID == "" {
		return api.Schedule{}, NewError(KindInvalidParameterValue, "schedule_id is required")
	}

	rows, err := s.db.Query(fmt.Sprintf(`SELECT %s FROM schedules WHERE schedule_id = ?`, scheduleColumns), scheduleID)
	if err != nil {
		return api.Schedule{}, err
	}
	defer func() { _ = rows.Close() }()

	schedules, err := scanSchedules(rows)
	if err != nil {
		return api.Schedule{}, err
	}

	if len(schedules) == 0 {
		return api.Schedule{}, NewError(KindNotFound, "schedule %s not found", scheduleID)
	}

	return schedules[0], nil
}

// ListSchedules returns schedules ordered by run time ascending. Fired
// one-shot schedules (kept for history) are excluded unless includeFired.
func (s *SQLiteStore) ListSchedules(includeFired bool, limit int) (api.ListSchedulesResult, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := fmt.Sprintf(`SELECT %s FROM schedules ORDER BY run_at_epoch ASC LIMIT ?`, scheduleColumns)
	if !includeFired {
		query = fmt.Sprintf(`SELECT %s FROM schedules WHERE fired_at IS NULL ORDER BY run_at_epoch ASC LIMIT ?`, scheduleColumns)
	}

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return api.ListSchedulesResult{}, err
	}
	defer func() { _ = rows.Close() }()

	schedules, err := scanSchedules(rows)
	if err != nil {
		return api.ListSchedulesResult{}, err
	}

	return api.ListSchedulesResult{Schedules: schedules, Count: len(schedules)}, nil
}

// UpdateSchedule applies a partial update. Explicit time-affecting fields
// clear the fired marker so the schedule becomes eligible again; a new rate
// expression re-arms the schedule one interval out.
func (s *SQLiteStore) UpdateSchedule(scheduleID string, upd api.UpdateScheduleRequest) (api.Schedule, error) {
	if _, err := s.GetSchedule(scheduleID); err != nil {
		return api.Schedule{}, err
	}

	// Later time-affecting fields overwrite earlier ones: an explicit
	// delay_seconds beats run_at_epoch, a new expression beats both.
	updates := map[string]any{}

	if upd.ScheduleName != nil {
		updates["schedule_name"] = *upd.ScheduleName
	}
	if upd.QueueName != nil {
		// An empty queue name would strand messages on a queue no route
		// can address.
		if *upd.QueueName == "" {
			return api.Schedule{}, NewError(KindInvalidParameterValue, "queue_name must not be empty")
		}
		updates["queue_name"] = *upd.QueueName
	}
	if upd.MessageBody != nil {
		// Same rule as create: an empty body would fail every future
		// send, leaving the schedule due but never firing.
		if *upd.MessageBody == "" {
			return api.Schedule{}, NewError(KindInvalidParameterValue, "message_body is required")
		}
		updates["message_body"] = *upd.MessageBody
	}
	if upd.RunAtEpoch != nil {
		updates["run_at_epoch"] = *upd.RunAtEpoch
		updates["fired_at"] = nil
	}
	if upd.DelaySeconds != nil {
		delay := *upd.DelaySeconds
		if delay < 0 {
			delay = 0
		}
		updates["run_at_epoch"] = s.now().Unix() + delay
		updates["fired_at"] = nil
	}
	if upd.ScheduleExpression != nil {
		interval, err := ParseRateExpression(*upd.ScheduleExpression)
		if err != nil {
			return api.Schedule{}, err
		}
		updates["schedule_expression"] = *upd.ScheduleExpression
		updates["interval_seconds"] = interval
		updates["run_at_epoch"] = s.now().Unix() + interval
		updates["fired_at"] = nil
	}

	if len(updates) == 0 {
		return api.Schedule{}, NewError(KindInvalidParameterValue, "no fields to update")
	}

	columns := make([]string, 0, len(updates))
	for col := range updates {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for _, col := range columns {
		sets = append(sets, col+" = ?")
		args = append(args, updates[col])
	}

	args = append(args, scheduleID)
	query := fmt.Sprintf(`UPDATE schedules SET %s WHERE schedule_id = ?`, strings.Join(sets, ", "))

	if _, err := s.db.Exec(query, args...); err != nil {
		return api.Schedule{}, err
	}

	return s.GetSchedule(scheduleID)
}

// CancelSchedule deletes a schedule. Idempotent; Cancelled reports whether a
// row existed.
func (s *SQLiteStore) CancelSchedule(scheduleID string) (api.CancelScheduleResult, error) {
	if scheduleID == "" {
		return api.CancelScheduleResult{}, NewError(KindInvalidParameterValue, "schedule_id is required")
	}

	res, err := s.db.Exec(`DELETE FROM schedules WHERE schedule_id = ?`, scheduleID)
	if err != nil {
		return api.CancelScheduleResult{}, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return api.CancelScheduleResult{}, err
	}

	return api.CancelScheduleResult{ScheduleID: scheduleID, Cancelled: deleted > 0}, nil
}

// RunDue fires due schedules oldest first. Each fire is an independent
// send-then-update sequence; a failed send leaves the schedule untouched so
// the next sweep retries it. Recurring schedules advance by their interval
// and never set fired_at; one-shot schedules are deleted, or marked fired
// when deleteAfter is false.
func (s *SQLiteStore) RunDue(maxToRun int, deleteAfter bool) (api.RunDueResult, error) {
	if maxToRun < 1 {
		maxToRun = 1
	}
	if maxToRun > maxListLimit {
		maxToRun = maxListLimit
	}

	now := s.now().Unix()

	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT %s FROM schedules WHERE fired_at IS NULL AND run_at_epoch <= ? ORDER BY run_at_epoch ASC LIMIT ?`, scheduleColumns),
		now, maxToRun,
	)
	if err != nil {
		return api.RunDueResult{}, err
	}

	due, err := scanSchedules(rows)
	_ = rows.Close()
	if err != nil {
		return api.RunDueResult{}, err
	}

	fired := []api.FiredSchedule{}
	for _, sched := range due {
		sent, err := s.Send(sched.QueueName, sched.MessageBody, 0)
		if err != nil {
			// Skipped this sweep; retried on the next one.
			continue
		}

		fired = append(fired, api.FiredSchedule{
			ScheduleID: sched.ScheduleID,
			MessageID:  sent.MessageID,
		})

		if sched.IntervalSeconds != nil {
			_, err = s.db.Exec(
				`UPDATE schedules SET last_fired_at = ?, run_at_epoch = ?, fired_at = NULL WHERE schedule_id = ?`,
				now, now+*sched.IntervalSeconds, sched.ScheduleID,
			)
		} else if deleteAfter {
			_, err = s.db.Exec(`DELETE FROM schedules WHERE schedule_id = ?`, sched.ScheduleID)
		} else {
			_, err = s.db.Exec(`UPDATE schedules SET fired_at = ? WHERE schedule_id = ?`, now, sched.ScheduleID)
		}
		if err != nil {
			return api.RunDueResult{}, err
		}
	}

	return api.RunDueResult{
		Fired:       fired,
		Count:       len(fired),
		Now:         now,
		DeleteAfter: deleteAfter,
	}, nil
}

// Close closes the connection to the SQLite database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks if the database connection is still valid.
func (s *SQLiteStore) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return s.db.PingContext(ctx)
}

// scanSchedules is an internal helper that parses SQL rows into api.Schedule structs.
func scanSchedules(rows *sql.Rows) ([]api.Schedule, error) {
	schedules := []api.Schedule{}
	for rows.Next() {
		var sched api.Schedule
		var name sql.NullString
		var firedAt sql.NullInt64
		var expression sql.NullString
		var interval sql.NullInt64
		var lastFiredAt sql.NullInt64

		err := rows.Scan(
			&sched.ScheduleID,
			&name,
			&sched.RunAtEpoch,
			&sched.QueueName,
			&sched.MessageBody,
			&sched.CreatedAt,
			&firedAt,
			&expression,
			&interval,
			&lastFiredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		if name.Valid {
			sched.ScheduleName = &name.String
		}
		if firedAt.Valid {
			sched.FiredAt = &firedAt.Int64
		}
		if expression.Valid {
			sched.ScheduleExpression = &expression.String
		}
		if interval.Valid {
			sched.IntervalSeconds = &interval.Int64
		}
		if lastFiredAt.Valid {
			sched.LastFiredAt = &lastFiredAt.Int64
		}

		schedules = append(schedules, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

// newID returns a prefixed opaque identifier.
func newID(prefix string) string {
	u := uuid.New()
	return prefix + hex.EncodeToString(u[:])
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// sqliteConnect is an internal helper that sets up the database connection
// and directory. InMemoryPath skips the filesystem entirely.
func sqliteConnect(dbPath string) (*sql.DB, error) {
	dsn := dbPath
	if dbPath != InMemoryPath {
		err := os.MkdirAll(dbPath, 0750)
		if err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Add("_pragma", "journal_mode=WAL")
		params.Add("_pragma", "synchronous=NORMAL")
		params.Add("_busy_timeout", "5000")

		dsn = fmt.Sprintf("%s?%s", filepath.Join(dbPath, sqliteDBName), params.Encode())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	return db, db.Ping()
}
