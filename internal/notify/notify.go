// Package notify scans the task list for overdue pending work and logs a
// mock notification. It is fire-and-forget: no retries, no delivery
// guarantee.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"taskdeck/internal/engine"
)

// DefaultInterval matches the 20-minute mail automation cadence.
const DefaultInterval = 20 * time.Minute

// TaskRef carries the minimal identifying fields of an overdue task.
type TaskRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
}

// Record is one emitted notification.
type Record struct {
	Timestamp    string    `json:"timestamp"`
	PendingCount int       `json:"pendingCount"`
	Tasks        []TaskRef `json:"tasks"`
}

// Scan selects tasks that are pending with a due date at or before now.
// It reports false when nothing is overdue. Tasks whose due date cannot
// be parsed never match.
func Scan(tasks []engine.Task, now time.Time) (Record, bool) {
	var refs []TaskRef
	for _, t := range tasks {
		if t.Status != engine.StatusPending {
			continue
		}
		due, err := parseDueDate(t.DueDate)
		if err != nil {
			continue
		}
		if due.After(now) {
			continue
		}
		refs = append(refs, TaskRef{ID: t.ID, Title: t.Title, DueDate: t.DueDate})
	}
	if len(refs) == 0 {
		return Record{}, false
	}
	return Record{
		Timestamp:    now.UTC().Format(time.RFC3339),
		PendingCount: len(refs),
		Tasks:        refs,
	}, true
}

// Notifier runs Scan once immediately on Start and then on every interval
// tick, logging each non-empty record.
type Notifier struct {
	Interval time.Duration
	Source   func() []engine.Task
	Logger   *slog.Logger
}

// Start launches the scan loop and returns a disposer. The disposer is
// idempotent; after it returns no further scans fire.
func (n *Notifier) Start() func() {
	interval := n.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	done := make(chan struct{})
	var once sync.Once

	go func() {
		n.run()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.run()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

func (n *Notifier) run() {
	record, ok := Scan(n.Source(), time.Now())
	if !ok {
		return
	}
	n.Logger.Info("mock email notification: pending tasks",
		"timestamp", record.Timestamp,
		"pendingCount", record.PendingCount,
		"tasks", record.Tasks,
	)
}

func parseDueDate(v string) (time.Time, error) {
	due, err := time.Parse("2006-01-02", v)
	if err == nil {
		return due, nil
	}
	return time.Parse(time.RFC3339, v)
}
