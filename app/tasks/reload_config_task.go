package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"newsmon/app/config"
)

// ReloadConfigTask re-reads the topics file and swaps the active
// configuration. Going through the queue means a swap never lands in the
// middle of a run.
type ReloadConfigTask struct {
	Task
	configs *config.Cache
}

func NewReloadConfigTask(configs *config.Cache, source Source) *ReloadConfigTask {
	return &ReloadConfigTask{
		Task:    NewTask(TaskTypeReloadConfig, source),
		configs: configs,
	}
}

func (t *ReloadConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	config, err := t.configs.Load()
	if err != nil {
		slog.Warn("Topics file rejected, keeping previous configuration",
			"path", t.configs.Path(), "error", err)
		return fmt.Errorf("failed to reload topics: %w", err)
	}

	slog.Info("Topics configuration reloaded",
		"source", string(t.Source),
		"topics", config.TopicCount(),
		"feeds", config.FeedCount(),
		"duration", t.GetDuration())

	return nil
}
