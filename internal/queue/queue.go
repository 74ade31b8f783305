// Package queue abstracts the task queue used by background refresh work.
package queue

import (
	"context"
	"time"
)

// Options control task delivery.
type Options struct {
	// ScheduleDelay postpones delivery of the task.
	ScheduleDelay time.Duration

	// DispatchDeadline bounds how long the task may run once delivered.
	DispatchDeadline time.Duration
}

// Enqueuer delivers task payloads to a queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts Options) error
}
