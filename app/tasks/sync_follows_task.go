package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chickadee/reader/app/database"
	"github.com/chickadee/reader/app/follows"
)

// SyncFollowsTask mirrors the follows file into the database: follows
// added to the file are registered, follows gone from the file are
// dropped. Item cleanup for dropped follows happens on the next
// refresh tick.
type SyncFollowsTask struct {
	Task
	followsCache *follows.Cache
	followRepo   database.FollowRepository
}

func NewSyncFollowsTask(followsCache *follows.Cache, followRepo database.FollowRepository) *SyncFollowsTask {
	return &SyncFollowsTask{
		Task:         NewTask(TaskTypeSyncFollows, "follows"),
		followsCache: followsCache,
		followRepo:   followRepo,
	}
}

func (t *SyncFollowsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	followed := make(map[string]bool)
	for _, entry := range t.followsCache.GetEntries() {
		followed[entry.URL] = true
		if err := t.followRepo.UpsertFollow(entry.URL); err != nil {
			return fmt.Errorf("failed to register follow: %w", err)
		}
	}

	stored, err := t.followRepo.GetFollows()
	if err != nil {
		return fmt.Errorf("failed to list follows: %w", err)
	}

	removed := 0
	for _, follow := range stored {
		if followed[follow.URL] {
			continue
		}
		if err := t.followRepo.DeleteFollow(follow.URL); err != nil {
			return fmt.Errorf("failed to remove follow: %w", err)
		}
		removed++
	}

	slog.Info("Task completed",
		"type", "SyncFollows",
		"duration", t.GetDuration(),
		"follows", len(followed),
		"removed", removed)

	return nil
}
