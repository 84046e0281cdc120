package tasks

import (
	"fmt"
	"time"

	"codeindex/internal/coreerr"
	"codeindex/internal/store"
)

// transitions is the closed status state machine. Attempts at any other
// transition fail with InvalidTransition and leave the task unchanged.
var transitions = map[store.TaskStatus]map[store.TaskStatus]bool{
	store.StatusPending: {
		store.StatusReady:      true,
		store.StatusInProgress: true,
		store.StatusBlocked:    true,
		store.StatusCancelled:  true,
	},
	store.StatusReady: {
		store.StatusInProgress: true,
		store.StatusBlocked:    true,
		store.StatusCancelled:  true,
	},
	store.StatusInProgress: {
		store.StatusDone:    true,
		store.StatusFailed:  true,
		store.StatusBlocked: true,
	},
	store.StatusBlocked: {
		store.StatusPending: true,
		store.StatusReady:   true,
	},
	store.StatusFailed: {
		store.StatusPending:   true,
		store.StatusCancelled: true,
	},
	store.StatusDone:      {},
	store.StatusCancelled: {},
}

// UpdateStatus transitions task_id to new_status, enforcing the transition
// table. On in_progress it sets started_at; on done it sets completed_at
// and actual_effort, then promotes ready dependents and recomputes parent
// progress.
func (e *Engine) UpdateStatus(taskID string, newStatus store.TaskStatus, metadata map[string]any) (*store.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateStatusLocked(taskID, newStatus, metadata)
}

func (e *Engine) updateStatusLocked(taskID string, newStatus store.TaskStatus, metadata map[string]any) (*store.Task, error) {
	t, err := e.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	allowed := transitions[t.Status]
	if !allowed[newStatus] {
		return nil, coreerr.New(coreerr.InvalidTransition, "update_status", taskID,
			fmt.Errorf("cannot transition from %s to %s", t.Status, newStatus))
	}

	now := time.Now().UTC()
	prevStatus := t.Status
	t.Status = newStatus
	if metadata != nil {
		t.Metadata = metadata
	}

	switch newStatus {
	case store.StatusInProgress:
		if t.StartedAt == nil {
			t.StartedAt = &now
		}
	case store.StatusDone:
		t.CompletedAt = &now
		if t.StartedAt != nil {
			t.ActualEffort = int(now.Sub(*t.StartedAt).Round(time.Minute).Minutes())
		}
	}

	if err := e.store.UpdateTask(t); err != nil {
		return nil, err
	}
	e.emit(taskID, EventStatusChanged, fmt.Sprintf("%s -> %s", prevStatus, newStatus), metadata)

	if newStatus == store.StatusDone {
		if err := e.promoteReadyDependents(taskID); err != nil {
			return nil, err
		}
		if err := e.maybeCompleteParent(t.ParentID); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// promoteReadyDependents finds tasks that blocked on taskID and, for any
// that are now fully unblocked, promotes them from pending to ready.
func (e *Engine) promoteReadyDependents(taskID string) error {
	dependents, err := e.store.ListDependents(taskID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, d := range dependents {
		if d.Type != store.DepBlocks || seen[d.TaskID] {
			continue
		}
		seen[d.TaskID] = true

		dependent, err := e.store.GetTask(d.TaskID)
		if err != nil || dependent.Status != store.StatusPending {
			continue
		}
		ready, err := e.allBlockingDepsDone(d.TaskID)
		if err != nil {
			return err
		}
		if ready {
			if _, err := e.updateStatusLocked(d.TaskID, store.StatusReady, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// maybeCompleteParent recomputes a parent's progress and auto-transitions
// it to done once every child is done.
func (e *Engine) maybeCompleteParent(parentID string) error {
	if parentID == "" {
		return nil
	}
	children, err := e.store.ListTasksByParent(parentID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	for _, c := range children {
		if c.Status != store.StatusDone {
			return nil
		}
	}
	parent, err := e.store.GetTask(parentID)
	if err != nil {
		return err
	}
	if parent.Status == store.StatusDone {
		return nil
	}
	// The parent's own state may not be in_progress; promote through the
	// shortest legal path instead of assuming it's already in_progress.
	if parent.Status == store.StatusPending || parent.Status == store.StatusReady {
		if _, err := e.updateStatusLocked(parentID, store.StatusInProgress, nil); err != nil {
			return err
		}
	}
	if parent.Status == store.StatusBlocked {
		if _, err := e.updateStatusLocked(parentID, store.StatusPending, nil); err != nil {
			return err
		}
		if _, err := e.updateStatusLocked(parentID, store.StatusInProgress, nil); err != nil {
			return err
		}
	}
	_, err = e.updateStatusLocked(parentID, store.StatusDone, nil)
	return err
}

// Rollback clears a failed task's timestamps and resets it to pending,
// allowed only from failed.
func (e *Engine) Rollback(taskID string) (*store.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != store.StatusFailed {
		return nil, coreerr.New(coreerr.InvalidTransition, "rollback", taskID,
			fmt.Errorf("rollback only allowed from failed, task is %s", t.Status))
	}

	t.Status = store.StatusPending
	t.StartedAt = nil
	t.CompletedAt = nil
	t.ActualEffort = 0
	if err := e.store.UpdateTask(t); err != nil {
		return nil, err
	}
	e.emit(taskID, EventRolledBack, "rolled back to pending", nil)
	return t, nil
}

// allBlockingDepsDone reports whether every blocks-dependency of taskID is
// done.
func (e *Engine) allBlockingDepsDone(taskID string) (bool, error) {
	deps, err := e.store.ListDependenciesOf(taskID)
	if err != nil {
		return false, err
	}
	for _, d := range deps {
		if d.Type != store.DepBlocks {
			continue
		}
		dep, err := e.store.GetTask(d.DependsOn)
		if err != nil {
			return false, err
		}
		if dep.Status != store.StatusDone {
			return false, nil
		}
	}
	return true, nil
}
