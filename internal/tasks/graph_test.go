package tasks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeindex/internal/store"
)

func chainEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t)
	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := e.CreateTask(CreateTaskInput{ID: id, Title: id})
		require.NoError(t, err)
	}
	// T3 -> T2 -> T1 (T2 blocks T1, T3 blocks T2): order T3, T2, T1.
	require.NoError(t, e.AddDependency("t1", "t2", store.DepBlocks))
	require.NoError(t, e.AddDependency("t2", "t3", store.DepBlocks))
	return e
}

func TestExecutionOrderTopologicallySorted(t *testing.T) {
	e := chainEngine(t)
	order, err := e.ExecutionOrder()
	require.NoError(t, err)
	require.Equal(t, []string{"t3", "t2", "t1"}, order)
}

func TestExecutionOrderEmptyTaskSet(t *testing.T) {
	// An empty task set yields an empty order.
	e := newTestEngine(t)
	order, err := e.ExecutionOrder()
	require.NoError(t, err)
	require.Empty(t, order)
}

func TestExecutionOrderExcludesDoneTasks(t *testing.T) {
	e := chainEngine(t)
	_, err := e.UpdateStatus("t3", store.StatusInProgress, nil)
	require.NoError(t, err)
	_, err = e.UpdateStatus("t3", store.StatusDone, nil)
	require.NoError(t, err)

	order, err := e.ExecutionOrder()
	require.NoError(t, err)
	require.Equal(t, []string{"t2", "t1"}, order)
}

func TestParallelGroupsLevelsIndependentTasks(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := e.CreateTask(CreateTaskInput{ID: id, Title: id})
		require.NoError(t, err)
	}
	// a and b are independent (level 0); c blocks on a and b (level 1).
	require.NoError(t, e.AddDependency("c", "a", store.DepBlocks))
	require.NoError(t, e.AddDependency("c", "b", store.DepBlocks))

	groups, err := e.ParallelGroups()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.ElementsMatch(t, []string{"a", "b", "d"}, groups[0].Tasks)
	require.True(t, groups[0].CanRunInParallel)
	require.Equal(t, []string{"c"}, groups[1].Tasks)
	require.False(t, groups[1].CanRunInParallel)
}

func TestCriticalPathWeightsByEstimatedEffort(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{ID: "t1", Title: "t1", EstimatedEffort: 30})
	require.NoError(t, err)
	_, err = e.CreateTask(CreateTaskInput{ID: "t2", Title: "t2", EstimatedEffort: 45})
	require.NoError(t, err)
	_, err = e.CreateTask(CreateTaskInput{ID: "t3", Title: "t3"}) // no estimate -> default 60
	require.NoError(t, err)
	require.NoError(t, e.AddDependency("t1", "t2", store.DepBlocks))
	require.NoError(t, e.AddDependency("t2", "t3", store.DepBlocks))

	path, err := e.CriticalPath()
	require.NoError(t, err)
	require.Equal(t, []string{"t3", "t2", "t1"}, path.Tasks)
	require.Equal(t, 60+45+30, path.TotalEffort)
}

func TestValidateFindsIsolatedTasks(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{ID: "a", Title: "a"})
	require.NoError(t, err)
	_, err = e.CreateTask(CreateTaskInput{ID: "b", Title: "b"})
	require.NoError(t, err)
	require.NoError(t, e.AddDependency("a", "b", store.DepBlocks))
	_, err = e.CreateTask(CreateTaskInput{ID: "lonely", Title: "lonely"})
	require.NoError(t, err)

	issues, err := e.Validate()
	require.NoError(t, err)
	var foundIsolated bool
	for _, iss := range issues {
		if iss.Kind == "isolated" && iss.TaskID == "lonely" {
			foundIsolated = true
		}
	}
	require.True(t, foundIsolated)
}

func TestValidateNoIssuesOnSingleTask(t *testing.T) {
	// A lone task in a graph of size 1 is not "isolated" — that check only
	// applies once the graph holds at least 2 tasks.
	e := newTestEngine(t)
	_, err := e.CreateTask(CreateTaskInput{ID: "solo", Title: "solo"})
	require.NoError(t, err)
	issues, err := e.Validate()
	require.NoError(t, err)
	require.Empty(t, issues)
}
