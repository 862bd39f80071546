package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// RunTask executes one full pipeline run.
type RunTask struct {
	Task
	runner RunnerInterface
}

func NewRunTask(runner RunnerInterface, source Source) *RunTask {
	return &RunTask{
		Task:   NewTask(TaskTypeRun, source),
		runner: runner,
	}
}

func (t *RunTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	slog.Debug("Task completed",
		"type", string(TaskTypeRun),
		"source", string(t.Source),
		"delivered", result.Delivered,
		"duration", t.GetDuration())

	return nil
}
