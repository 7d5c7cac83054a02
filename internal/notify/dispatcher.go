// Package notify runs the detached side effects of a workflow transition:
// sheet updates, snapshots after a decision, email and SMS. Their failures
// are logged and counted, never returned to the operator.
package notify

import (
	"context"
	"sync"
	"time"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/common/metrics"
)

const (
	defaultTaskTimeout = 2 * time.Minute
	errorBuffer        = 64
)

// TaskError is a failed background task.
type TaskError struct {
	Task string
	Err  error
}

// Dispatcher owns the background tasks. Tasks are not tied to the
// context of the transition that started them.
type Dispatcher struct {
	logger  logger.Logger
	timeout time.Duration

	wg   sync.WaitGroup
	errs chan TaskError
}

func NewDispatcher(log logger.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	return &Dispatcher{
		logger:  log.With(map[string]interface{}{"component": "notify"}),
		timeout: timeout,
		errs:    make(chan TaskError, errorBuffer),
	}
}

// Go starts fn detached from the caller.
func (d *Dispatcher) Go(task string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.report(TaskError{Task: task, Err: err})
		}
	}()
}

// Errors exposes failed tasks to an optional observer. Entries are
// dropped when nobody reads and the buffer is full.
func (d *Dispatcher) Errors() <-chan TaskError {
	return d.errs
}

// Wait blocks until every started task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) report(te TaskError) {
	metrics.BackgroundTasksFailed.WithLabelValues(te.Task).Inc()
	stdErr := errors.Normalize(te.Err)
	d.logger.Error("Background task failed", map[string]interface{}{
		"task":      te.Task,
		"errorCode": stdErr.Code,
		"error":     te.Err.Error(),
	})

	select {
	case d.errs <- te:
	default:
	}
}
