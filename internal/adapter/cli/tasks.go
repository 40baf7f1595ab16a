package cli

import (
	"fmt"
	"os"
	"time"

	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"

	"github.com/spf13/cobra"
)

var (
	taskLimit    int
	taskStatuses []string
	taskQuery    string
	exportFormat string
	exportOutput string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Browse, export or delete tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task and its output",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksShow,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id...>",
	Short: "Delete tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksDelete,
}

var tasksStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize tasks by status, credits and day",
	Args:  cobra.NoArgs,
	RunE:  runTasksStats,
}

var tasksExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the task list as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE:  runTasksExport,
}

func init() {
	for _, cmd := range []*cobra.Command{tasksListCmd, tasksStatsCmd, tasksExportCmd} {
		cmd.Flags().IntVarP(&taskLimit, "limit", "n", 0, "number of tasks to fetch (1-100, default from config)")
		cmd.Flags().StringSliceVarP(&taskStatuses, "status", "s", nil, "only tasks with these statuses")
		cmd.Flags().StringVarP(&taskQuery, "query", "q", "", "search in task titles and bodies")
	}
	tasksExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json or csv")
	tasksExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default manus_tasks_<timestamp>.<ext>)")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksShowCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)
	tasksCmd.AddCommand(tasksStatsCmd)
	tasksCmd.AddCommand(tasksExportCmd)
}

func taskFilter(defaultLimit int) (entity.TaskFilter, error) {
	filter := entity.TaskFilter{Limit: defaultLimit, Query: taskQuery}
	if taskLimit != 0 {
		if taskLimit < entity.MinTaskLimit || taskLimit > entity.MaxTaskLimit {
			return filter, &entity.ValidationError{
				Field:   "limit",
				Message: fmt.Sprintf("must be between %d and %d", entity.MinTaskLimit, entity.MaxTaskLimit),
			}
		}
		filter.Limit = taskLimit
	}
	for _, s := range taskStatuses {
		st, err := entity.ParseTaskStatus(s)
		if err != nil {
			return filter, &entity.ValidationError{Field: "status", Message: err.Error()}
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	return filter, nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	c, err := newContainer("tasks", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	filter, err := taskFilter(c.Config.TaskLimit)
	if err != nil {
		return err
	}
	tasks, err := c.Manus.ListTasks(cmd.Context(), filter)
	if err != nil {
		return err
	}
	c.Console.ShowTasks(tasks, time.Now())
	return nil
}

func runTasksShow(cmd *cobra.Command, args []string) error {
	c, err := newContainer("tasks", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	task, err := c.Manus.GetTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	c.Console.ShowTask(task)
	for _, msg := range task.Output {
		for _, item := range msg.Content {
			switch v := item.(type) {
			case entity.TextContent:
				fmt.Fprintf(c.Console.Out(), "\n[%s]\n%s\n", msg.Role, c.Console.RenderMarkdown(v.Text))
			case entity.OutputFileContent:
				fmt.Fprintf(c.Console.Out(), "📎 %s %s\n", v.FileName, v.URL)
			case entity.InputFileContent:
				fmt.Fprintf(c.Console.Out(), "📄 input file %s\n", v.FileID)
			case entity.InputImageContent:
				fmt.Fprintf(c.Console.Out(), "🖼  %s\n", v.URL)
			case entity.UnknownContent:
			}
		}
	}
	return nil
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	c, err := newContainer("tasks", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	failed := 0
	for _, id := range args {
		if err := c.Manus.DeleteTask(cmd.Context(), id); err != nil {
			c.Console.ShowError(err)
			failed++
			continue
		}
		c.Console.ShowInfo("Deleted %s", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(args))
	}
	return nil
}

func runTasksStats(cmd *cobra.Command, args []string) error {
	c, err := newContainer("tasks", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	filter, err := taskFilter(c.Config.TaskLimit)
	if err != nil {
		return err
	}
	tasks, err := c.Manus.ListTasks(cmd.Context(), filter)
	if err != nil {
		return err
	}
	c.Console.ShowTaskAnalysis(service.AnalyzeTasks(tasks))
	return nil
}

func runTasksExport(cmd *cobra.Command, args []string) error {
	format, err := service.ParseExportFormat(exportFormat)
	if err != nil {
		return err
	}

	c, err := newContainer("tasks", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	filter, err := taskFilter(c.Config.TaskLimit)
	if err != nil {
		return err
	}
	tasks, err := c.Manus.ListTasks(cmd.Context(), filter)
	if err != nil {
		return err
	}
	body, err := service.ExportTasks(tasks, format)
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		path = service.ExportFilename("manus_tasks", format, time.Now())
	}
	if path == "-" {
		_, err := fmt.Fprint(c.Console.Out(), body)
		return err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	c.Console.ShowInfo("Exported %d tasks to %s", len(tasks), path)
	return nil
}
