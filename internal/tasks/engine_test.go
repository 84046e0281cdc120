package tasks

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codeindex/internal/coreerr"
	"codeindex/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestCreateTaskGeneratesID(t *testing.T) {
	e := newTestEngine(t)
	task, err := e.CreateTask(CreateTaskInput{Title: "do the thing"})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)
	require.Equal(t, store.StatusPending, task.Status)
	require.Equal(t, store.TaskFeature, task.Type)
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{})
	require.True(t, coreerr.Of(err, coreerr.ValidationFailed))
}

func TestCreateTaskDuplicateIDRejected(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{ID: "t1", Title: "first"})
	require.NoError(t, err)
	_, err = e.CreateTask(CreateTaskInput{ID: "t1", Title: "second"})
	require.Error(t, err)
}

func TestCreateTaskThenGetTaskRoundTrip(t *testing.T) {
	// CreateTask then GetTask returns the same task.
	e := newTestEngine(t)
	created, err := e.CreateTask(CreateTaskInput{ID: "t1", Title: "do it", Priority: 5})
	require.NoError(t, err)
	fetched, err := e.GetTask("t1")
	require.NoError(t, err)
	require.Equal(t, created.Title, fetched.Title)
	require.Equal(t, created.Priority, fetched.Priority)
	require.Equal(t, created.Status, fetched.Status)
}

func TestDecomposeBulkCreatesChildren(t *testing.T) {
	e := newTestEngine(t)
	parent, err := e.CreateTask(CreateTaskInput{ID: "parent", Title: "parent task"})
	require.NoError(t, err)

	children, err := e.Decompose(parent.ID, []CreateTaskInput{
		{ID: "c1", Title: "child 1"},
		{ID: "c2", Title: "child 2"},
	})
	require.NoError(t, err)
	require.Len(t, children, 2)
	for _, c := range children {
		require.Equal(t, parent.ID, c.ParentID)
	}

	events, err := e.Events(parent.ID)
	require.NoError(t, err)
	require.Len(t, events, 2) // created + decomposed
	require.Equal(t, "decomposed", events[1].EventType)
}

func TestAddDependencySelfLoopRejected(t *testing.T) {
	// A self-dependency (A, A) is rejected as CycleDetected.
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{ID: "a", Title: "a"})
	require.NoError(t, err)

	err = e.AddDependency("a", "a", store.DepBlocks)
	require.True(t, coreerr.Of(err, coreerr.CycleDetected))
}

func TestAddDependencyMissingEndpointNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{ID: "a", Title: "a"})
	require.NoError(t, err)
	err = e.AddDependency("a", "missing", store.DepBlocks)
	require.Error(t, err)
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := e.CreateTask(CreateTaskInput{ID: id, Title: id})
		require.NoError(t, err)
	}
	require.NoError(t, e.AddDependency("t1", "t2", store.DepBlocks)) // t1 blocked by t2
	require.NoError(t, e.AddDependency("t2", "t3", store.DepBlocks)) // t2 blocked by t3

	err := e.AddDependency("t3", "t1", store.DepBlocks)
	require.True(t, coreerr.Of(err, coreerr.CycleDetected))

	deps, derr := e.store.ListDependenciesOf("t3")
	require.NoError(t, derr)
	require.Empty(t, deps)
}

func TestAddDependencyNonBlockingNeverCyclic(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"t1", "t2"} {
		_, err := e.CreateTask(CreateTaskInput{ID: id, Title: id})
		require.NoError(t, err)
	}
	require.NoError(t, e.AddDependency("t1", "t2", store.DepSuggests))
	require.NoError(t, e.AddDependency("t2", "t1", store.DepSuggests))
}
