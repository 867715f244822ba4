package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chickadee/reader/app/activity"
	"github.com/chickadee/reader/app/database"
	"github.com/chickadee/reader/app/resource"
)

// RefreshFollowsTask runs one refresh tick: it diffs every followed
// collection against the stored items and persists the resulting batch
// of activities in one pass.
type RefreshFollowsTask struct {
	Task
	followed     []string
	orchestrator *activity.Orchestrator
	followRepo   database.FollowRepository
	itemRepo     database.ItemRepository
}

func NewRefreshFollowsTask(followed []string, orchestrator *activity.Orchestrator,
	followRepo database.FollowRepository, itemRepo database.ItemRepository) *RefreshFollowsTask {
	return &RefreshFollowsTask{
		Task:         NewTask(TaskTypeRefreshFollows, "follows"),
		followed:     followed,
		orchestrator: orchestrator,
		followRepo:   followRepo,
		itemRepo:     itemRepo,
	}
}

func (t *RefreshFollowsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	known, err := t.loadKnownItems()
	if err != nil {
		return fmt.Errorf("failed to load stored items: %w", err)
	}

	activities := t.orchestrator.Refresh(ctx, t.followed, known)

	created := 0
	updated := 0
	removed := 0

	for _, act := range activities {
		switch act.Type {
		case resource.ActivityCreate, resource.ActivityUpdate:
			contextURL := ""
			if act.Object.Context != nil {
				contextURL = act.Object.Context.URL
			}
			if err := t.itemRepo.UpsertItem(contextURL, act.Object); err != nil {
				return fmt.Errorf("failed to upsert item: %w", err)
			}
			if act.Type == resource.ActivityCreate {
				created++
			} else {
				updated++
			}
		case resource.ActivityRemove:
			if err := t.itemRepo.DeleteItem(act.Object.Key()); err != nil {
				return fmt.Errorf("failed to delete item: %w", err)
			}
			removed++
		}
	}

	now := time.Now().UTC()
	for _, followURL := range t.followed {
		if err := t.followRepo.UpdateRefreshedAt(followURL, now); err != nil {
			slog.Warn("Failed to update refresh time", "url", followURL, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", "RefreshFollows",
		"follows", len(t.followed),
		"duration", t.GetDuration(),
		"created", created,
		"updated", updated,
		"removed", removed)

	return nil
}

// loadKnownItems maps every context URL with stored items to those
// items, so the orchestrator can diff and also clean up after
// unfollowed collections.
func (t *RefreshFollowsTask) loadKnownItems() (map[string][]resource.Object, error) {
	contextURLs, err := t.itemRepo.GetContextURLs()
	if err != nil {
		return nil, err
	}

	known := make(map[string][]resource.Object, len(contextURLs))
	for _, contextURL := range contextURLs {
		items, err := t.itemRepo.GetItemsByContext(contextURL)
		if err != nil {
			return nil, err
		}
		known[contextURL] = items
	}
	return known, nil
}
