// Package hydration decides which documents are stale and spreads their
// refresh tasks over time so downstream APIs are not hammered in bursts.
package hydration

import (
	"context"
	"fmt"
	"time"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/docmodel"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/queue"
)

// dispatchDeadline is fixed per task, independent of the schedule delay.
const dispatchDeadline = 5 * time.Minute

// Rule bounds one hydration source: records younger than StaleAfterDays are
// skipped, and at most HourlyRateLimit tasks are dispatched per hour window.
type Rule struct {
	StaleAfterDays  int
	HourlyRateLimit int
}

// Rules maps a ruleset name to its rule.
type Rules map[string]Rule

// DefaultRules returns the registry of known hydration sources.
func DefaultRules() Rules {
	return Rules{
		"propublica":        {StaleAfterDays: 7, HourlyRateLimit: 10},
		"congress":          {StaleAfterDays: 7, HourlyRateLimit: 30},
		"statebill-summary": {StaleAfterDays: 30, HourlyRateLimit: 20},
	}
}

// Task is the payload enqueued for one stale record.
type Task struct {
	ID      string `json:"id"`
	Ruleset string `json:"ruleset"`
}

// Result reports the scheduling outcome for one input record.
type Result struct {
	ID       string
	Enqueued bool
	Delay    time.Duration
	Err      error
}

// Scheduler applies a ruleset to a batch of records and enqueues refresh
// tasks for the stale ones.
type Scheduler struct {
	rules Rules
	clock clockx.Clock
	log   logging.Logger
}

func NewScheduler(rules Rules, clock clockx.Clock, log logging.Logger) *Scheduler {
	return &Scheduler{rules: rules, clock: clock, log: log}
}

// Schedule enqueues a refresh task for every record whose timeKey field is at
// least StaleAfterDays old. A missing or zero timeKey counts as the epoch, so
// never-hydrated records are always stale. Enqueued tasks are delayed in
// hour-wide windows of HourlyRateLimit tasks each; records that are skipped
// as fresh do not consume a window slot. Enqueue failures are recorded per
// record and do not abort the batch.
func (s *Scheduler) Schedule(ctx context.Context, records []docmodel.Record, timeKey, ruleset string, q queue.Enqueuer) ([]Result, error) {
	rule, ok := s.rules[ruleset]
	if !ok {
		return nil, fmt.Errorf("ruleset %q: %w", ruleset, common.ErrUnknownRuleset)
	}

	now := s.clock.Now()
	results := make([]Result, 0, len(records))
	enqueued := 0

	for _, rec := range records {
		id, _ := rec[docmodel.FieldID].(string)
		res := Result{ID: id}

		if ageDays(now, rec, timeKey) < rule.StaleAfterDays {
			results = append(results, res)
			continue
		}

		delay := time.Duration(enqueued/rule.HourlyRateLimit) * time.Hour
		enqueued++

		err := q.Enqueue(ctx, Task{ID: id, Ruleset: ruleset}, queue.Options{
			ScheduleDelay:    delay,
			DispatchDeadline: dispatchDeadline,
		})
		if err != nil {
			s.log.Error(ctx, "enqueue hydration task", "id", id, "ruleset", ruleset, "error", err)
			res.Err = fmt.Errorf("enqueue %s: %w", id, err)
		} else {
			res.Enqueued = true
			res.Delay = delay
		}
		results = append(results, res)
	}

	s.log.Info(ctx, "hydration batch scheduled",
		"ruleset", ruleset, "records", len(records), "enqueued", enqueued)
	return results, nil
}

// ageDays returns the whole days elapsed since the record's timeKey value.
func ageDays(now time.Time, rec docmodel.Record, timeKey string) int {
	millis, _ := rec[timeKey].(int64)
	return int(now.Sub(time.UnixMilli(millis)).Hours() / 24)
}
