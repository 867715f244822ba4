package activity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/chickadee/reader/app/fetch"
	"github.com/chickadee/reader/app/resource"
)

const defaultConcurrency = 8

// Getter is the object source the orchestrator refreshes through.
type Getter interface {
	Get(ctx context.Context, rawURL string, strategy fetch.Strategy) (resource.Object, error)
	GetCached(rawURL string) (*resource.Object, error)
}

// Orchestrator diffs the followed collections against what the reader
// already holds and emits one batched set of activities per refresh
// tick. Collections refresh concurrently, bounded by the concurrency
// limit; the resulting activities are merged in follow order so a tick
// is deterministic for a given set of responses.
type Orchestrator struct {
	source      Getter
	concurrency int
}

func NewOrchestrator(source Getter, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Orchestrator{
		source:      source,
		concurrency: concurrency,
	}
}

// Refresh produces the activities that bring the stored items in line
// with the followed collections. known maps each collection URL to the
// item objects currently held for it; collections present in known but
// no longer followed contribute a Remove per held item. A collection
// whose fetch fails contributes nothing and its items stay untouched.
func (o *Orchestrator) Refresh(ctx context.Context, followed []string, known map[string][]resource.Object) []resource.Activity {
	followedSet := make(map[string]bool, len(followed))
	for _, u := range followed {
		followedSet[u] = true
	}

	var activities []resource.Activity

	// Unfollowed collections first: their items are removed outright.
	for contextURL, items := range known {
		if followedSet[contextURL] {
			continue
		}
		for _, item := range items {
			activities = append(activities, resource.Wrap(item, resource.ActivityRemove))
		}
	}

	// One semaphore bounds every fetch of the tick, collection and item
	// pages alike; collections themselves all start immediately.
	results := make([][]resource.Activity, len(followed))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, followURL := range followed {
		wg.Add(1)
		go func(i int, followURL string) {
			defer wg.Done()
			results[i] = o.refreshCollection(ctx, sem, followURL, known[followURL])
		}(i, followURL)
	}
	wg.Wait()

	for _, batch := range results {
		activities = append(activities, batch...)
	}
	return activities
}

// refreshCollection diffs one followed collection. The cached snapshot
// is read before the network fetch so an unchanged collection can be
// recognized and short-circuited without emitting anything.
func (o *Orchestrator) refreshCollection(ctx context.Context, sem chan struct{}, followURL string, prior []resource.Object) []resource.Activity {
	cached, err := o.source.GetCached(followURL)
	if err != nil {
		slog.Debug("Cached snapshot unavailable", "url", followURL, "error", err)
		cached = nil
	}

	sem <- struct{}{}
	current, err := o.source.Get(ctx, followURL, fetch.NetworkFirst)
	<-sem
	if err != nil {
		slog.Warn("Failed to refresh collection", "url", followURL, "error", err)
		return nil
	}

	if cached != nil && resource.Equal(*cached, current) {
		return nil
	}

	if current.Type != resource.TypeOrderedCollection {
		slog.Warn("Followed resource is not a collection", "url", followURL, "type", string(current.Type))
		return nil
	}

	attribution := contextFor(current, followURL)

	priorByKey := make(map[string]resource.Object, len(prior))
	for _, item := range prior {
		priorByKey[item.Key()] = item
	}
	cachedByKey := make(map[string]resource.Object)
	if cached != nil {
		for _, item := range cached.OrderedItems {
			cachedByKey[item.Key()] = item
		}
	}

	currentKeys := make(map[string]bool, len(current.OrderedItems))

	type change struct {
		entry resource.Object
		act   resource.ActivityType
	}
	var changes []change

	for _, entry := range current.OrderedItems {
		key := entry.Key()
		currentKeys[key] = true

		if _, held := priorByKey[key]; !held {
			changes = append(changes, change{entry: entry, act: resource.ActivityCreate})
			continue
		}

		// Held items only change when the collection entry itself did;
		// comparing against the cached entry avoids re-emitting every
		// item on every tick.
		cachedEntry, wasCached := cachedByKey[key]
		if wasCached && resource.Equal(cachedEntry, entry) {
			continue
		}

		changes = append(changes, change{entry: entry, act: resource.ActivityUpdate})
	}

	// Item pages are fetched concurrently under the shared bound; the
	// results slot back into entry order so the batch stays
	// deterministic.
	enriched := make([]resource.Object, len(changes))
	var wg sync.WaitGroup
	for i, ch := range changes {
		wg.Add(1)
		go func(i int, entry resource.Object) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			enriched[i] = o.enrich(ctx, entry)
		}(i, ch.entry)
	}
	wg.Wait()

	var activities []resource.Activity
	for i, ch := range changes {
		obj := enriched[i]
		attach(&obj, current, attribution)
		activities = append(activities, resource.Wrap(obj, ch.act))
	}

	// Anything held but gone from the collection is removed; when the
	// collection empties out, that is every prior item.
	for _, item := range prior {
		if !currentKeys[item.Key()] {
			activities = append(activities, resource.Wrap(item, resource.ActivityRemove))
		}
	}

	return activities
}

// enrich fetches the item's own page and folds its metadata under the
// collection entry. The entry keeps its identity and its timestamps;
// the page fills in whatever the feed left blank. A failed or fruitless
// fetch leaves the entry as-is.
func (o *Orchestrator) enrich(ctx context.Context, entry resource.Object) resource.Object {
	key := entry.Key()
	if key == "" {
		return entry
	}

	page, err := o.source.Get(ctx, key, fetch.CacheFirst)
	if err != nil {
		slog.Debug("Failed to enrich item", "url", key, "error", err)
		return entry
	}

	merged := entry
	if merged.Name == "" {
		merged.Name = page.Name
	}
	if merged.Summary == "" {
		merged.Summary = page.Summary
	}
	if merged.Image == nil {
		merged.Image = page.Image
	}
	if merged.Published == nil {
		merged.Published = page.Published
	}
	if merged.Updated == nil {
		merged.Updated = page.Updated
	}
	return merged
}

// attach stamps an item with its collection context. The collection's
// attribution wins over whatever the item carried: the reader shows
// where an item came from, not who the entry claims wrote it.
func attach(obj *resource.Object, collection resource.Object, ctx *resource.Context) {
	obj.Context = ctx
	if collection.AttributedTo != nil {
		obj.AttributedTo = collection.AttributedTo
	}
}

func contextFor(collection resource.Object, followURL string) *resource.Context {
	ctx := &resource.Context{
		URL:  followURL,
		Name: collection.Name,
	}
	if collection.AttributedTo != nil {
		if ctx.Name == "" {
			ctx.Name = collection.AttributedTo.Name
		}
		ctx.Icon = collection.AttributedTo.Icon
	}
	return ctx
}
