package activity

import (
	"fmt"
	"sort"
	"time"

	"github.com/chickadee/reader/app/resource"
)

// Aggregator folds a stream of activities into a deduplicated set of
// objects keyed by their merge key. Create and Update both mean
// "upsert"; Remove on an absent key is a no-op so removals and late
// creates can arrive in any order. The zero value is not usable, use
// NewAggregator.
type Aggregator struct {
	objects map[string]resource.Object
	order   []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		objects: make(map[string]resource.Object),
	}
}

// Apply folds one activity into the set. An activity carrying child
// activities (a wrapped collection) is applied entry by entry; the
// collection envelope itself is not stored. Unknown activity types are
// a programming error and panic.
func (a *Aggregator) Apply(act resource.Activity) {
	if len(act.Items) > 0 {
		for _, item := range act.Items {
			a.Apply(item)
		}
		return
	}

	key := act.Object.Key()

	switch act.Type {
	case resource.ActivityCreate, resource.ActivityUpdate:
		if _, exists := a.objects[key]; !exists {
			a.order = append(a.order, key)
		}
		a.objects[key] = act.Object
	case resource.ActivityRemove:
		if _, exists := a.objects[key]; !exists {
			return
		}
		delete(a.objects, key)
		for i, k := range a.order {
			if k == key {
				a.order = append(a.order[:i], a.order[i+1:]...)
				break
			}
		}
	default:
		panic(fmt.Sprintf("unknown activity type: %s", act.Type))
	}
}

// ApplyAll folds a batch of activities in order.
func (a *Aggregator) ApplyAll(acts []resource.Activity) {
	for _, act := range acts {
		a.Apply(act)
	}
}

// Items returns the aggregated objects newest first. Objects without a
// timestamp sort to the end (epoch fallback); ties keep arrival order,
// so re-applying the same activities yields the same ordering.
func (a *Aggregator) Items() []resource.Object {
	items := make([]resource.Object, 0, len(a.order))
	for _, key := range a.order {
		items = append(items, a.objects[key])
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].EffectiveTime().After(items[j].EffectiveTime())
	})
	return items
}

// Visible returns the aggregated objects newest first, excluding items
// whose effective time is still in the future. The filter uses the same
// timestamp the sort does, so a future-dated item cannot pin itself to
// the top; it stays in the set and surfaces once the clock catches up.
func (a *Aggregator) Visible(now time.Time) []resource.Object {
	items := a.Items()
	visible := items[:0:0]
	for _, item := range items {
		if item.EffectiveTime().After(now) {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

// Len reports the number of aggregated objects.
func (a *Aggregator) Len() int {
	return len(a.objects)
}
