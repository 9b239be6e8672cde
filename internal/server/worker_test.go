package server

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/localq/localq/api"
	"github.com/stretchr/testify/assert"
)

// MockSchedulerStore satisfies the database.SchedulerStore interface
type MockSchedulerStore struct {
	RunDueFunc func(maxToRun int, deleteAfter bool) (api.RunDueResult, error)

	RunDueCalled    bool
	LastMaxToRun    int
	LastDeleteAfter bool
}

// Interface methods
func (m *MockSchedulerStore) ScheduleAt(runAtEpoch int64, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	return api.Schedule{}, nil
}
func (m *MockSchedulerStore) ScheduleIn(delaySeconds int64, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	return api.Schedule{}, nil
}
func (m *MockSchedulerStore) ScheduleRate(scheduleExpression, messageBody, queueName, scheduleName string) (api.Schedule, error) {
	return api.Schedule{}, nil
}
func (m *MockSchedulerStore) GetSchedule(scheduleID string) (api.Schedule, error) {
	return api.Schedule{}, nil
}
func (m *MockSchedulerStore) ListSchedules(includeFired bool, limit int) (api.ListSchedulesResult, error) {
	return api.ListSchedulesResult{}, nil
}
func (m *MockSchedulerStore) UpdateSchedule(scheduleID string, upd api.UpdateScheduleRequest) (api.Schedule, error) {
	return api.Schedule{}, nil
}
func (m *MockSchedulerStore) CancelSchedule(scheduleID string) (api.CancelScheduleResult, error) {
	return api.CancelScheduleResult{}, nil
}
func (m *MockSchedulerStore) RunDue(maxToRun int, deleteAfter bool) (api.RunDueResult, error) {
	m.RunDueCalled = true
	m.LastMaxToRun = maxToRun
	m.LastDeleteAfter = deleteAfter
	return m.RunDueFunc(maxToRun, deleteAfter)
}

func TestWorker_Sweep(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("passes batch size and delete mode through", func(t *testing.T) {
		mock := &MockSchedulerStore{
			RunDueFunc: func(maxToRun int, deleteAfter bool) (api.RunDueResult, error) {
				return api.RunDueResult{
					Fired: []api.FiredSchedule{{ScheduleID: "sch_1", MessageID: "msg_1"}},
					Count: 1,
				}, nil
			},
		}

		w := &Worker{Store: mock, BatchSize: 10, DeleteAfter: true, Logger: logger}
		w.sweep()

		assert.True(t, mock.RunDueCalled)
		assert.Equal(t, 10, mock.LastMaxToRun)
		assert.True(t, mock.LastDeleteAfter)
	})

	t.Run("keeps history when delete mode is off", func(t *testing.T) {
		mock := &MockSchedulerStore{
			RunDueFunc: func(maxToRun int, deleteAfter bool) (api.RunDueResult, error) {
				return api.RunDueResult{}, nil
			},
		}

		w := &Worker{Store: mock, BatchSize: 5, Logger: logger}
		w.sweep()

		assert.False(t, mock.LastDeleteAfter)
	})

	t.Run("survives a store failure", func(t *testing.T) {
		mock := &MockSchedulerStore{
			RunDueFunc: func(maxToRun int, deleteAfter bool) (api.RunDueResult, error) {
				return api.RunDueResult{}, errors.New("disk gone")
			},
		}

		w := &Worker{Store: mock, BatchSize: 10, Logger: logger}
		w.sweep()

		assert.True(t, mock.RunDueCalled)
	})
}
