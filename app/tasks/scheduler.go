package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chickadee/reader/app/activity"
	"github.com/chickadee/reader/app/cfg"
	"github.com/chickadee/reader/app/database"
	"github.com/chickadee/reader/app/fetch"
	"github.com/chickadee/reader/app/follows"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	followsCache *follows.Cache
	followRepo   database.FollowRepository
	itemRepo     database.ItemRepository
	orchestrator *activity.Orchestrator
	client       *fetch.Client
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(followsCache *follows.Cache, followRepo database.FollowRepository,
	itemRepo database.ItemRepository, orchestrator *activity.Orchestrator,
	client *fetch.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		followsCache: followsCache,
		followRepo:   followRepo,
		itemRepo:     itemRepo,
		orchestrator: orchestrator,
		client:       client,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	syncTask := NewSyncFollowsTask(s.followsCache, s.followRepo)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncFollowsTask", "error", err)
		return
	}

	refreshTask := NewRefreshFollowsTask(s.followsCache.GetURLs(), s.orchestrator, s.followRepo, s.itemRepo)
	if err := s.EnqueueTask(refreshTask); err != nil {
		slog.Warn("Failed to enqueue RefreshFollowsTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks() {
	if s.refreshDue() {
		refreshTask := NewRefreshFollowsTask(s.followsCache.GetURLs(), s.orchestrator, s.followRepo, s.itemRepo)
		if err := s.EnqueueTask(refreshTask); err != nil {
			slog.Warn("Failed to enqueue RefreshFollowsTask", "error", err)
		}
	}

	if s.followsCache.GetSettings().ExtractContent {
		extractTask := NewExtractContentTask(s.client, s.itemRepo)
		if err := s.EnqueueTask(extractTask); err != nil {
			slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
		}
	}
}

// refreshDue reports whether any follow is past its refresh interval.
// One refresh task covers every follow, so a single due follow is
// enough; collections that did not change short-circuit cheaply.
func (s *Scheduler) refreshDue() bool {
	stored, err := s.followRepo.GetFollows()
	if err != nil {
		slog.Warn("Failed to check follow refresh times", "error", err)
		return true
	}
	if len(stored) == 0 {
		return false
	}

	refreshInterval := time.Duration(s.followsCache.GetSettings().RefreshInterval) * time.Second
	cutoff := time.Now().UTC().Add(-refreshInterval)

	for _, follow := range stored {
		if follow.LastRefreshedAt == nil || follow.LastRefreshedAt.Before(cutoff) {
			return true
		}
	}

	slog.Debug("No follows due for refresh", "count", len(stored))
	return false
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
