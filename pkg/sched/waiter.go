package sched

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/quatton/aimless/pkg/alog"
)

// DefaultPollInterval is the pause between status queries.
const DefaultPollInterval = 10 * time.Second

// Waiter blocks until groups of jobs leave the scheduler or complete.
type Waiter struct {
	sched    Scheduler
	interval time.Duration
	log      *alog.Logger
	onPoll   func(ids []JobID)
}

// WaiterOption configures a Waiter
type WaiterOption func(*Waiter)

// WithInterval sets the poll interval. Non-positive values keep the default.
func WithInterval(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWaiterLogger sets the logger used for poll progress.
func WithWaiterLogger(log *alog.Logger) WaiterOption {
	return func(w *Waiter) {
		if log != nil {
			w.log = log
		}
	}
}

// WithPollHook registers fn to be called after every status query.
func WithPollHook(fn func(ids []JobID)) WaiterOption {
	return func(w *Waiter) { w.onPoll = fn }
}

func NewWaiter(s Scheduler, opts ...WaiterOption) *Waiter {
	w := &Waiter{
		sched:    s,
		interval: DefaultPollInterval,
		log:      alog.NewDiscard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Interval returns the configured poll interval.
func (w *Waiter) Interval() time.Duration { return w.interval }

// Wait queries the scheduler immediately and then once per interval until
// none of ids is in a non-terminal state. There is no built-in timeout;
// cancel ctx to give up early.
func (w *Waiter) Wait(ctx context.Context, ids []JobID) error {
	idList := joinIDs(ids)
	start := time.Now()

	stats, err := w.stat(ctx, ids)
	if err != nil {
		return err
	}
	if !Running(ids, stats) {
		w.log.Debug(fmt.Sprintf("Finished job IDs '%s' in '%d' seconds", idList, 0))
		return nil
	}

	ticker := jitterbug.New(w.interval, &jitterbug.Norm{Stdev: w.interval / 20, Mean: 0})
	defer ticker.Stop()

	polls := 1
	for {
		w.log.Debug(fmt.Sprintf("Waiting '%d' seconds for job IDs '%s'",
			int(w.interval.Seconds())*polls, idList))
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for job IDs %s: %w", idList, ctx.Err())
		case <-ticker.C:
		}
		polls++
		stats, err = w.stat(ctx, ids)
		if err != nil {
			return err
		}
		if !Running(ids, stats) {
			w.log.Debug(fmt.Sprintf("Finished job IDs '%s' in '%d' seconds",
				idList, int(time.Since(start).Seconds())))
			return nil
		}
	}
}

func (w *Waiter) stat(ctx context.Context, ids []JobID) (map[JobID]*Status, error) {
	stats, err := w.sched.Stat(ctx, ids)
	if w.onPoll != nil {
		w.onPoll(ids)
	}
	if err != nil {
		return nil, err
	}
	// A reply gathered while ctx was ending may be missing jobs.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("waiting for job IDs %s: %w", joinIDs(ids), ctxErr)
	}
	return stats, nil
}

func joinIDs(ids []JobID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}
