package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsmon/app/cfg"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// ErrQueueFull is returned by EnqueueTask when the queue has no room left.
var ErrQueueFull = errors.New("task queue is full")

const taskQueueSize = 16

// Rate limit backoff can hold a run for several minutes.
const taskTimeout = 15 * time.Minute

// Scheduler owns the task queue and its single worker. One worker means
// runs never overlap and config reloads never land mid-run.
type Scheduler struct {
	runner    RunnerInterface
	schedule  string
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(c *cfg.Cfg, runner RunnerInterface) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		runner:    runner,
		schedule:  c.Schedule,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, taskQueueSize),
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.cron = cron.New(cron.WithParser(parser))

	if _, err := s.cron.AddFunc(c.Schedule, s.enqueueScheduledRun); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.cron.Start()
	slog.Info("Scheduler started", "schedule", s.schedule)

	if err := s.EnqueueTask(NewRunTask(s.runner, SourceStartup)); err != nil {
		slog.Warn("Failed to enqueue startup run", "error", err)
	}
}

// Stop halts the cron, cancels the in-flight task and waits for the worker
// to exit. The queue is left open: a watcher callback can still race a
// shutdown, and enqueueing to a stopped scheduler must fail, not panic.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (s *Scheduler) enqueueScheduledRun() {
	if err := s.EnqueueTask(NewRunTask(s.runner, SourceSchedule)); err != nil {
		slog.Warn("Skipping scheduled run", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	slog.Debug("Task started", "type", string(task.GetType()), "id", task.GetID(), "source", string(task.GetSource()))

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "source", string(task.GetSource()), "error", err)
	}
}
