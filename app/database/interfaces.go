package database

import (
	"time"

	"github.com/chickadee/reader/app/resource"
)

type ItemRepository interface {
	GetItem(key string) (*resource.Object, error)
	GetItemsByContext(contextURL string) ([]resource.Object, error)
	GetContextURLs() ([]string, error)
	GetItemsMissingSummary(limit int) ([]resource.Object, error)
	GetTimeline(limit int, now time.Time) ([]resource.Object, error)
	GetItemCount() (int, error)

	UpsertItem(contextURL string, object resource.Object) error
	DeleteItem(key string) error
}

type FollowRepository interface {
	GetFollows() ([]Follow, error)
	GetFollowCount() (int, error)

	UpsertFollow(url string) error
	DeleteFollow(url string) error
	UpdateRefreshedAt(url string, refreshedAt time.Time) error
}
