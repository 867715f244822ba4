package api

import (
	"context"
	"net/http"

	"github.com/chickadee/reader/app/activity"
	"github.com/chickadee/reader/app/database"
	"github.com/chickadee/reader/app/fetch"
	"github.com/chickadee/reader/app/follows"
	"github.com/chickadee/reader/app/resource"
	"github.com/chickadee/reader/app/tasks"
)

type SourceInterface interface {
	Get(ctx context.Context, rawURL string, strategy fetch.Strategy) (resource.Object, error)
	GetCached(rawURL string) (*resource.Object, error)
}

var _ SourceInterface = (*activity.Source)(nil)

type Handler struct {
	itemRepo     database.ItemRepository
	followRepo   database.FollowRepository
	followsCache *follows.Cache
	source       SourceInterface
	orchestrator *activity.Orchestrator
	scheduler    tasks.TaskSchedulerInterface
	httpClient   *http.Client
	userAgent    string
}
