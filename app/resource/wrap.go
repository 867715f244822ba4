package resource

// Wrap envelopes an object into an activity. An OrderedCollection is
// wrapped recursively: every entry in orderedItems surfaces as its own
// activity (defaulting to Create) so a collection refresh can be
// consumed as a flat list of item-level changes. The object itself is
// never mutated, which keeps wrapping idempotent.
func Wrap(object Object, activityType ActivityType) Activity {
	if object.Type != TypeOrderedCollection {
		return Activity{
			Type:   activityType,
			Object: object,
		}
	}

	items := make([]Activity, 0, len(object.OrderedItems))
	for _, item := range object.OrderedItems {
		items = append(items, Wrap(item, ActivityCreate))
	}

	return Activity{
		Type:   activityType,
		Object: object,
		Items:  items,
	}
}
