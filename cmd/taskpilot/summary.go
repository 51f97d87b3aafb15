package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskpilot/gateway/pkg/cli"
	"taskpilot/gateway/pkg/gateway"
)

var summaryFlags struct {
	tasksFile string
	watch     bool
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Generate a daily summary of tasks",
	Long: `Generate a daily summary from a YAML task file and print it to stdout.
With --watch the command keeps running and regenerates the summary on the
configured cron schedule (summary.schedule in the config file).

The task file is a YAML list:
  - title: Write Q3 report
    list: Work
    due: 2026-08-29
  - title: Buy groceries
    done: true`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryFlags.tasksFile, "tasks", "tasks.yaml", "YAML file with tasks to summarize")
	summaryCmd.Flags().BoolVar(&summaryFlags.watch, "watch", false, "keep running and summarize on the configured schedule")
}

// taskEntry is the on-disk task shape. Dates are plain YYYY-MM-DD.
type taskEntry struct {
	Title string `yaml:"title"`
	List  string `yaml:"list"`
	Notes string `yaml:"notes"`
	Due   string `yaml:"due"`
	Done  bool   `yaml:"done"`
}

func loadTasks(path string) ([]gateway.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var entries []taskEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}

	tasks := make([]gateway.Task, 0, len(entries))
	for _, e := range entries {
		t := gateway.Task{Title: e.Title, List: e.List, Notes: e.Notes, Done: e.Done}
		if e.Due != "" {
			due, err := time.Parse("2006-01-02", e.Due)
			if err != nil {
				return nil, fmt.Errorf("invalid due date %q for task %q: %w", e.Due, e.Title, err)
			}
			t.Due = due
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, cleanup, err := buildGateway(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	if !summaryFlags.watch {
		tasks, err := loadTasks(summaryFlags.tasksFile)
		if err != nil {
			return err
		}
		summary, err := gw.DailySummary(ctx, cfg.Provider, time.Now(), tasks)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	}

	source := func(ctx context.Context, day time.Time) ([]gateway.Task, error) {
		return loadTasks(summaryFlags.tasksFile)
	}
	sink := func(ctx context.Context, day time.Time, summary string) {
		fmt.Printf("--- summary for %s ---\n%s\n", day.Format("2006-01-02"), summary)
	}

	sched := gateway.NewSummaryScheduler(gw, cfg.Provider, cfg.Summary.Schedule, source, sink)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	fmt.Fprintf(os.Stderr, "watching on schedule %q, Ctrl-C to stop\n", cfg.Summary.Schedule)
	<-ctx.Done()
	return nil
}
