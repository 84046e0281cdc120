package tasks

import (
	"codeindex/internal/logging"
	"codeindex/internal/store"
)

// Closed set of audit event types recorded as TaskEvent rows. Rows are
// append-only: inserted, never updated or deleted.
const (
	EventCreated         = "created"
	EventStatusChanged   = "status_changed"
	EventDependencyAdded = "dependency_added"
	EventDecomposed      = "decomposed"
	EventRolledBack      = "rolled_back"
)

// emit persists a TaskEvent and mirrors it to the categorized logger,
// writing both a durable row and a log line for the same occurrence.
func (e *Engine) emit(taskID, eventType, message string, metadata map[string]any) {
	evt := &store.TaskEvent{TaskID: taskID, EventType: eventType, Message: message, Metadata: metadata}
	if err := e.store.PutEvent(evt); err != nil {
		logging.Get(logging.CategoryTasks).Warn("failed to persist event %s for %s: %v", eventType, taskID, err)
		return
	}
	logging.Get(logging.CategoryTasks).Info("task=%s event=%s msg=%s", taskID, eventType, message)
}

// Events returns the append-only audit trail for a task, oldest first.
func (e *Engine) Events(taskID string) ([]*store.TaskEvent, error) {
	return e.store.ListEvents(taskID)
}
