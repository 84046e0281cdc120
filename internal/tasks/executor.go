package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeindex/internal/coreerr"
	"codeindex/internal/logging"
	"codeindex/internal/store"
)

// defaultTaskTimeout is the per-task hard timeout unless overridden.
const defaultTaskTimeout = 5 * time.Minute

// defaultMaxConcurrency is how many tasks within a group run simultaneously
// unless overridden.
const defaultMaxConcurrency = 3

// Callback performs the actual work behind a task and returns an output
// value on success.
type Callback func(ctx context.Context, task *TaskView) (any, error)

// TaskView is the read-only task shape handed to a Callback.
type TaskView struct {
	ID       string
	Title    string
	Metadata map[string]any
}

// ExecutorOptions configures one Executor.execute_all run.
type ExecutorOptions struct {
	MaxConcurrency int
	TaskTimeout    time.Duration
	StopOnError    bool
}

// Event is one occurrence published during execution. Event delivery is
// synchronous with the state change that produced it and subscribers must
// not block the executor.
type Event struct {
	Type      string
	TaskID    string
	GroupLv   int
	Message   string
	Timestamp time.Time
	Data      any
}

// Metrics summarizes a completed or in-flight execution.
type Metrics struct {
	TotalExecuted int
	SuccessCount  int
	FailureCount  int
	SuccessRate   float64
	AvgDuration   time.Duration
}

// Report is the outcome of execute_all.
type Report struct {
	Metrics   Metrics
	Cancelled []string
	Err       error
}

// Executor drives task execution over parallel_groups(), dispatching up to
// max_concurrency callbacks per group and settling each group before the
// next begins.
type Executor struct {
	engine *Engine

	mu        sync.Mutex
	subs      []chan Event
	paused    bool
	cancelled map[string]bool
	inflight  map[string]context.CancelFunc
	durations []time.Duration
	successes int
	failures  int
}

// NewExecutor returns an Executor driving engine.
func NewExecutor(engine *Engine) *Executor {
	return &Executor{
		engine:    engine,
		cancelled: make(map[string]bool),
		inflight:  make(map[string]context.CancelFunc),
	}
}

// Subscribe registers a channel that receives every Event published during
// subsequent execution. The returned channel is buffered; a full channel
// drops events rather than blocking the executor.
func (x *Executor) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	x.mu.Lock()
	x.subs = append(x.subs, ch)
	x.mu.Unlock()
	return ch
}

func (x *Executor) publish(evt Event) {
	evt.Timestamp = time.Now().UTC()
	x.mu.Lock()
	subs := append([]chan Event(nil), x.subs...)
	x.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Pause prevents new tasks from being dispatched; in-flight tasks continue
// to completion.
func (x *Executor) Pause() {
	x.mu.Lock()
	x.paused = true
	x.mu.Unlock()
	x.publish(Event{Type: "execution:paused"})
}

// Resume clears a prior Pause.
func (x *Executor) Resume() {
	x.mu.Lock()
	x.paused = false
	x.mu.Unlock()
	x.publish(Event{Type: "execution:resumed"})
}

func (x *Executor) isPaused() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.paused
}

// Cancel requests best-effort cancellation of taskID: if it is in-flight
// its callback's context is cancelled so the executor stops awaiting it,
// and the task settles with status cancelled rather than done or failed.
func (x *Executor) Cancel(taskID string) {
	x.mu.Lock()
	x.cancelled[taskID] = true
	cancel := x.inflight[taskID]
	x.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (x *Executor) isCancelled(taskID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.cancelled[taskID]
}

type taskOutcome struct {
	taskID string
	err    error
	dur    time.Duration
}

// ExecuteAll runs callback over every group from parallel_groups(), group
// by group, dispatching up to opts.MaxConcurrency tasks at once within a
// group and waiting for the group to settle before starting the next.
func (x *Executor) ExecuteAll(ctx context.Context, callback Callback, opts ExecutorOptions) Report {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = defaultTaskTimeout
	}

	x.publish(Event{Type: "execution:started"})

	groups, err := x.engine.ParallelGroups()
	if err != nil {
		x.publish(Event{Type: "execution:failed", Message: err.Error()})
		return Report{Metrics: x.snapshotMetrics(), Err: err}
	}

	var cancelledIDs []string
	for _, group := range groups {
		if x.isPaused() {
			for x.isPaused() {
				select {
				case <-ctx.Done():
					return x.finalize(ctx.Err(), cancelledIDs)
				case <-time.After(100 * time.Millisecond):
				}
			}
		}
		select {
		case <-ctx.Done():
			return x.finalize(ctx.Err(), cancelledIDs)
		default:
		}

		x.publish(Event{Type: "group:started", GroupLv: group.Level})

		sem := make(chan struct{}, opts.MaxConcurrency)
		results := make(chan taskOutcome, len(group.Tasks))
		var wg sync.WaitGroup

		stopped := false
		for _, taskID := range group.Tasks {
			if stopped {
				break
			}
			for x.isPaused() && ctx.Err() == nil {
				time.Sleep(100 * time.Millisecond)
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(taskID string) {
				defer wg.Done()
				defer func() { <-sem }()
				results <- x.runOne(ctx, taskID, callback, opts.TaskTimeout)
			}(taskID)
		}

		go func() {
			wg.Wait()
			close(results)
		}()

		for res := range results {
			if x.isCancelled(res.taskID) {
				cancelledIDs = append(cancelledIDs, res.taskID)
				continue
			}
			x.mu.Lock()
			x.durations = append(x.durations, res.dur)
			if res.err != nil {
				x.failures++
			} else {
				x.successes++
			}
			x.mu.Unlock()
			if res.err != nil && opts.StopOnError {
				stopped = true
			}
		}

		x.publish(Event{Type: "group:completed", GroupLv: group.Level})

		if stopped {
			err := fmt.Errorf("execution stopped after failure in group %d", group.Level)
			x.publish(Event{Type: "execution:failed", Message: err.Error()})
			return x.finalize(err, cancelledIDs)
		}
	}

	return x.finalize(nil, cancelledIDs)
}

// runOne transitions a task to in_progress, invokes callback under a
// per-task timeout, and settles it to done or failed.
func (x *Executor) runOne(ctx context.Context, taskID string, callback Callback, timeout time.Duration) taskOutcome {
	start := time.Now()
	x.publish(Event{Type: "task:started", TaskID: taskID})

	if _, err := x.engine.UpdateStatus(taskID, store.StatusInProgress, nil); err != nil {
		x.publish(Event{Type: "task:failed", TaskID: taskID, Message: err.Error()})
		return taskOutcome{taskID: taskID, err: err, dur: time.Since(start)}
	}

	t, err := x.engine.GetTask(taskID)
	if err != nil {
		return taskOutcome{taskID: taskID, err: err, dur: time.Since(start)}
	}
	view := &TaskView{ID: t.ID, Title: t.Title, Metadata: t.Metadata}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	x.mu.Lock()
	x.inflight[taskID] = cancel
	x.mu.Unlock()
	defer func() {
		x.mu.Lock()
		delete(x.inflight, taskID)
		x.mu.Unlock()
	}()

	done := make(chan struct {
		out any
		err error
	}, 1)
	go func() {
		out, cbErr := callback(taskCtx, view)
		done <- struct {
			out any
			err error
		}{out, cbErr}
	}()

	var outErr error
	var out any
	select {
	case r := <-done:
		out, outErr = r.out, r.err
	case <-taskCtx.Done():
		if taskCtx.Err() == context.DeadlineExceeded {
			outErr = coreerr.New(coreerr.TaskTimeout, "execute", taskID, taskCtx.Err())
		} else {
			outErr = fmt.Errorf("task %s: %w", taskID, taskCtx.Err())
		}
	}

	if x.isCancelled(taskID) {
		x.settleCancelled(taskID)
		x.publish(Event{Type: "task:cancelled", TaskID: taskID})
		return taskOutcome{taskID: taskID, err: fmt.Errorf("task %s cancelled", taskID), dur: time.Since(start)}
	}

	if outErr != nil {
		if _, sErr := x.engine.UpdateStatus(taskID, store.StatusFailed, map[string]any{"error": outErr.Error()}); sErr != nil {
			logging.Get(logging.CategoryExecutor).Warn("failed to mark %s failed: %v", taskID, sErr)
		}
		x.publish(Event{Type: "task:failed", TaskID: taskID, Message: outErr.Error()})
		return taskOutcome{taskID: taskID, err: outErr, dur: time.Since(start)}
	}

	if _, sErr := x.engine.UpdateStatus(taskID, store.StatusDone, map[string]any{"result": out}); sErr != nil {
		x.publish(Event{Type: "task:failed", TaskID: taskID, Message: sErr.Error()})
		return taskOutcome{taskID: taskID, err: sErr, dur: time.Since(start)}
	}
	x.publish(Event{Type: "task:completed", TaskID: taskID})
	return taskOutcome{taskID: taskID, dur: time.Since(start)}
}

// settleCancelled moves an in_progress task to cancelled through the state
// machine's legal path (in_progress -> failed -> cancelled), so a cancelled
// task never lingers in a non-terminal state.
func (x *Executor) settleCancelled(taskID string) {
	log := logging.Get(logging.CategoryExecutor)
	if _, err := x.engine.UpdateStatus(taskID, store.StatusFailed, map[string]any{"reason": "cancelled"}); err != nil {
		log.Warn("failed to settle cancelled task %s: %v", taskID, err)
		return
	}
	if _, err := x.engine.UpdateStatus(taskID, store.StatusCancelled, nil); err != nil {
		log.Warn("failed to mark %s cancelled: %v", taskID, err)
	}
}

func (x *Executor) finalize(err error, cancelledIDs []string) Report {
	if err != nil && err != context.Canceled {
		x.publish(Event{Type: "execution:failed", Message: err.Error()})
	} else {
		x.publish(Event{Type: "execution:completed"})
	}
	return Report{Metrics: x.snapshotMetrics(), Cancelled: cancelledIDs, Err: err}
}

func (x *Executor) snapshotMetrics() Metrics {
	x.mu.Lock()
	defer x.mu.Unlock()
	total := x.successes + x.failures
	var avg time.Duration
	if len(x.durations) > 0 {
		var sum time.Duration
		for _, d := range x.durations {
			sum += d
		}
		avg = sum / time.Duration(len(x.durations))
	}
	rate := 0.0
	if total > 0 {
		rate = float64(x.successes) / float64(total)
	}
	return Metrics{
		TotalExecuted: total,
		SuccessCount:  x.successes,
		FailureCount:  x.failures,
		SuccessRate:   rate,
		AvgDuration:   avg,
	}
}
