package database

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    queue_name TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    visible_at INTEGER NOT NULL,
    receipt_handle TEXT,
    receipt_expires_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_messages_visible ON messages (queue_name, visible_at);
CREATE INDEX IF NOT EXISTS idx_messages_receipt ON messages (receipt_handle);

CREATE TABLE IF NOT EXISTS schedules (
    schedule_id TEXT PRIMARY KEY,
    schedule_name TEXT,
    run_at_epoch INTEGER NOT NULL,
    queue_name TEXT NOT NULL,
    message_body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    fired_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_schedules_due ON schedules (fired_at, run_at_epoch);
`

// scheduleMigrations are additive columns applied when missing, so databases
// created before recurring-schedule support upgrade in place.
var scheduleMigrations = map[string]string{
	"schedule_expression": `ALTER TABLE schedules ADD COLUMN schedule_expression TEXT`,
	"interval_seconds":    `ALTER TABLE schedules ADD COLUMN interval_seconds INTEGER`,
	"last_fired_at":       `ALTER TABLE schedules ADD COLUMN last_fired_at INTEGER`,
}
