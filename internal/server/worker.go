package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/localq/localq/internal/server/database"
)

// Worker periodically fires due schedules, enqueueing their payloads.
type Worker struct {
	Store       database.SchedulerStore
	BatchSize   int
	DeleteAfter bool
	Interval    time.Duration
	Logger      *slog.Logger
}

// Start begins the worker's processing loop.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Logger.Info("Starting scheduler worker", "interval", w.Interval.String())

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("Stopping scheduler worker")
			return
		case <-ticker.C:
			w.Logger.Debug("Checking for due schedules")
			w.sweep()
			w.Logger.Debug(fmt.Sprintf("Completed sweep for due schedules, next check at %s", time.Now().Add(w.Interval).Format(time.RFC3339)))
		}
	}
}

// sweep fires one batch of due schedules. Schedules whose send fails stay
// due and are picked up again on the next sweep.
func (w *Worker) sweep() {
	result, err := w.Store.RunDue(w.BatchSize, w.DeleteAfter)
	if err != nil {
		w.Logger.Error("Failed to run due schedules", "error", err)
		return
	}

	for _, fired := range result.Fired {
		w.Logger.Info("Fired schedule", "schedule_id", fired.ScheduleID, "message_id", fired.MessageID)
	}
}
