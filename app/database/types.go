package database

import (
	"time"
)

// Item is a stored timeline entry. Object carries the full normalized
// resource as JSON; the remaining columns exist for querying only.
type Item struct {
	Key         string // Merge key: the item's URL href, or its id when it has no URL
	ContextURL  string // URL of the followed collection the item came from
	ObjectJSON  []byte
	PublishedAt *time.Time
	UpdatedAt   *time.Time
	CreatedAt   time.Time
}

// Follow is a subscribed collection.
type Follow struct {
	URL             string
	AddedAt         time.Time
	LastRefreshedAt *time.Time
}
