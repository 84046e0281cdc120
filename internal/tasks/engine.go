// Package tasks implements the Task Graph Engine: task CRUD, the
// blocks-edge dependency graph with cycle detection, readiness/ordering
// queries, the status state machine, and a parallel executor.
package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeindex/internal/coreerr"
	"codeindex/internal/store"
)

// Engine owns the persistent store and serializes status transitions and
// dependency-graph mutations, so concurrent status updates to the same task
// resolve one at a time and the blocks-edge subgraph stays acyclic.
type Engine struct {
	store *store.Store
	mu    sync.Mutex
}

// New returns an Engine backed by st.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// CreateTaskInput is the caller-supplied shape for create_task.
type CreateTaskInput struct {
	ID              string
	ParentID        string
	Title           string
	Description     string
	Type            store.TaskType
	Priority        int
	Complexity      store.TaskComplexity
	EstimatedEffort int
	TestRequired    bool
	Metadata        map[string]any
}

// CreateTask validates input, generates an id if absent, and persists a new
// pending Task, emitting a "created" event.
func (e *Engine) CreateTask(in CreateTaskInput) (*store.Task, error) {
	if in.Title == "" {
		return nil, coreerr.New(coreerr.ValidationFailed, "create_task", in.ID, fmt.Errorf("title is required"))
	}
	if in.Type == "" {
		in.Type = store.TaskFeature
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	t := &store.Task{
		ID:              id,
		ParentID:        in.ParentID,
		Title:           in.Title,
		Description:     in.Description,
		Type:            in.Type,
		Status:          store.StatusPending,
		Priority:        in.Priority,
		Complexity:      in.Complexity,
		EstimatedEffort: in.EstimatedEffort,
		TestRequired:    in.TestRequired,
		Metadata:        in.Metadata,
		CreatedAt:       time.Now().UTC(),
	}
	if err := e.store.PutTask(t); err != nil {
		return nil, err
	}
	e.emit(t.ID, EventCreated, fmt.Sprintf("task %q created", t.Title), nil)
	return t, nil
}

// GetTask returns a task by id.
func (e *Engine) GetTask(id string) (*store.Task, error) {
	return e.store.GetTask(id)
}

// ListTasks returns every task.
func (e *Engine) ListTasks() ([]*store.Task, error) {
	return e.store.ListTasks()
}

// Decompose bulk-creates children of parentID and emits a "decomposed"
// event on the parent.
func (e *Engine) Decompose(parentID string, subtasks []CreateTaskInput) ([]*store.Task, error) {
	if _, err := e.store.GetTask(parentID); err != nil {
		return nil, err
	}
	out := make([]*store.Task, 0, len(subtasks))
	for _, in := range subtasks {
		in.ParentID = parentID
		t, err := e.CreateTask(in)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	e.emit(parentID, EventDecomposed, fmt.Sprintf("decomposed into %d subtasks", len(out)), map[string]any{"count": len(out)})
	return out, nil
}

// AddDependency inserts a dependency edge, rejecting it as CycleDetected if
// the task would depend on itself (for any edge type) or if it would close
// a cycle in the blocks-edge subgraph (suggests/relates_to edges are
// informational and not checked for cycles), or as NotFound if either
// endpoint is missing.
func (e *Engine) AddDependency(taskID, dependsOn string, typ store.DependencyType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if taskID == dependsOn {
		return coreerr.New(coreerr.CycleDetected, "add_dependency", taskID, fmt.Errorf("a task cannot depend on itself"))
	}
	if _, err := e.store.GetTask(taskID); err != nil {
		return err
	}
	if _, err := e.store.GetTask(dependsOn); err != nil {
		return err
	}

	if typ == store.DepBlocks {
		cyclic, err := e.reachableViaBlocks(dependsOn, taskID)
		if err != nil {
			return err
		}
		if cyclic {
			return coreerr.New(coreerr.CycleDetected, "add_dependency", taskID, fmt.Errorf("%s already (transitively) depends on %s", dependsOn, taskID))
		}
	}

	if err := e.store.PutDependency(&store.Dependency{TaskID: taskID, DependsOn: dependsOn, Type: typ}); err != nil {
		return err
	}
	e.emit(taskID, EventDependencyAdded, fmt.Sprintf("depends on %s (%s)", dependsOn, typ), nil)
	return nil
}

// reachableViaBlocks runs a DFS from start over existing blocks edges
// (following depends_on, i.e. "what does this task depend on") looking for
// target. Finding it means the proposed edge would close a cycle.
func (e *Engine) reachableViaBlocks(start, target string) (bool, error) {
	visited := make(map[string]bool)
	var dfs func(node string) (bool, error)
	dfs = func(node string) (bool, error) {
		if node == target {
			return true, nil
		}
		if visited[node] {
			return false, nil
		}
		visited[node] = true
		deps, err := e.store.ListDependenciesOf(node)
		if err != nil {
			return false, err
		}
		for _, d := range deps {
			if d.Type != store.DepBlocks {
				continue
			}
			found, err := dfs(d.DependsOn)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
		return false, nil
	}
	return dfs(start)
}
