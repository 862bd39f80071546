package tasks

import (
	"context"

	"newsmon/app/runner"
)

// TaskSchedulerInterface defines the interface for task scheduling
// operations. Used by the main application and the HTTP API to enqueue
// work and control the worker.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// RunnerInterface is the slice of the pipeline runner tasks need.
type RunnerInterface interface {
	Run(ctx context.Context) (runner.Result, error)
}

var _ RunnerInterface = (*runner.Runner)(nil)
