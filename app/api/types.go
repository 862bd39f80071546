package api

import (
	"context"

	"newsmon/app/cfg"
	"newsmon/app/config"
	"newsmon/app/runner"
	"newsmon/app/tasks"
)

// RunnerInterface is the slice of the pipeline runner the API reads and
// triggers.
type RunnerInterface interface {
	Run(ctx context.Context) (runner.Result, error)
	Last() (runner.Result, bool)
}

var _ RunnerInterface = (*runner.Runner)(nil)

type Handler struct {
	cfg       *cfg.Cfg
	runner    RunnerInterface
	configs   *config.Cache
	scheduler tasks.TaskSchedulerInterface
}
