package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codeindex/internal/store"
	"codeindex/internal/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and drive the task graph",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every task",
	RunE:  runTasksList,
}

var (
	taskTitle        string
	taskDescription  string
	taskType         string
	taskParent       string
	taskPriority     int
	taskEffort       int
	taskTestRequired bool

	taskStatusFilter string
)

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	RunE:  runTasksCreate,
}

var tasksReadyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List tasks ready to run (pending with every blocking dependency done)",
	RunE:  runTasksReady,
}

var tasksGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print execution order, parallel groups, and the critical path",
	RunE:  runTasksGraph,
}

func init() {
	tasksCreateCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	tasksCreateCmd.Flags().StringVar(&taskDescription, "description", "", "Task description")
	tasksCreateCmd.Flags().StringVar(&taskType, "type", "feature", "Task type: feature|bug|test|refactor|doc")
	tasksCreateCmd.Flags().StringVar(&taskParent, "parent", "", "Parent task id")
	tasksCreateCmd.Flags().IntVar(&taskPriority, "priority", 0, "Priority (higher runs sooner)")
	tasksCreateCmd.Flags().IntVar(&taskEffort, "effort", 0, "Estimated effort in minutes")
	tasksCreateCmd.Flags().BoolVar(&taskTestRequired, "test-required", false, "Mark the task as requiring tests")
	tasksCreateCmd.MarkFlagRequired("title")
	tasksListCmd.Flags().StringVar(&taskStatusFilter, "status", "", "Only show tasks with this status")

	tasksCmd.AddCommand(tasksListCmd, tasksCreateCmd, tasksReadyCmd, tasksGraphCmd)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger.Debug("Listing tasks", zap.String("status", taskStatusFilter))
	list, err := tasks.New(st).ListTasks()
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	shown := 0
	for _, t := range list {
		if taskStatusFilter != "" && t.Status != store.TaskStatus(taskStatusFilter) {
			continue
		}
		fmt.Printf("%s [%s] p%d %s\n", t.ID, t.Status, t.Priority, t.Title)
		shown++
	}
	if shown == 0 {
		fmt.Println("no tasks")
	}
	return nil
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger.Info("Creating task", zap.String("title", taskTitle), zap.String("type", taskType))
	t, err := tasks.New(st).CreateTask(tasks.CreateTaskInput{
		ParentID:        taskParent,
		Title:           taskTitle,
		Description:     taskDescription,
		Type:            store.TaskType(taskType),
		Priority:        taskPriority,
		EstimatedEffort: taskEffort,
		TestRequired:    taskTestRequired,
	})
	if err != nil {
		logger.Error("Task creation failed", zap.Error(err))
		return fmt.Errorf("create_task: %w", err)
	}
	logger.Debug("Task created", zap.String("id", t.ID))
	fmt.Printf("created %s: %s\n", t.ID, t.Title)
	return nil
}

func runTasksReady(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger.Debug("Listing ready tasks")
	ready, err := tasks.New(st).ReadyTasks()
	if err != nil {
		return fmt.Errorf("ready_tasks: %w", err)
	}
	if len(ready) == 0 {
		fmt.Println("no ready tasks")
		return nil
	}
	for _, t := range ready {
		fmt.Printf("%s p%d %s\n", t.ID, t.Priority, t.Title)
	}
	return nil
}

func runTasksGraph(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	engine := tasks.New(st)
	logger.Debug("Computing task graph views")

	order, err := engine.ExecutionOrder()
	if err != nil {
		return fmt.Errorf("execution_order: %w", err)
	}
	fmt.Println("execution order:")
	for _, id := range order {
		fmt.Printf("  %s\n", id)
	}

	groups, err := engine.ParallelGroups()
	if err != nil {
		return fmt.Errorf("parallel_groups: %w", err)
	}
	fmt.Println("parallel groups:")
	for _, g := range groups {
		fmt.Printf("  level %d (parallel=%v): %v\n", g.Level, g.CanRunInParallel, g.Tasks)
	}

	path, err := engine.CriticalPath()
	if err != nil {
		return fmt.Errorf("critical_path: %w", err)
	}
	fmt.Printf("critical path (%d min): %v\n", path.TotalEffort, path.Tasks)

	issues, err := engine.Validate()
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if len(issues) > 0 {
		fmt.Println("issues:")
		for _, i := range issues {
			fmt.Printf("  [%s] %s: %s\n", i.Kind, i.TaskID, i.Message)
		}
	}
	return nil
}
