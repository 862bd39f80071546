package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsmon/app/cfg"
	"newsmon/app/config"
	"newsmon/app/tasks"
)

func NewHandler(c *cfg.Cfg, runner RunnerInterface, configs *config.Cache,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		cfg:       c,
		runner:    runner,
		configs:   configs,
		scheduler: scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.cfg.Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	status := gin.H{
		"schedule":     h.cfg.Schedule,
		"state_driver": h.cfg.StateDriver,
		"dry_run":      h.cfg.DryRun,
	}

	if config := h.configs.Get(); config != nil {
		status["topics"] = config.TopicCount()
		status["feeds"] = config.FeedCount()
	}

	if last, ok := h.runner.Last(); ok {
		status["last_run"] = last
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) TriggerRun(c *gin.Context) {
	task := tasks.NewRunTask(h.runner, tasks.SourceAPI)

	if err := h.scheduler.EnqueueTask(task); err != nil {
		if errors.Is(err, tasks.ErrQueueFull) {
			c.JSON(http.StatusConflict, gin.H{"error": "a run is already queued"})
			return
		}
		slog.Error("Failed to enqueue run", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "queued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}
