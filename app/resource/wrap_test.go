package resource

import (
	"reflect"
	"testing"
	"time"
)

func TestWrapObject(t *testing.T) {
	obj := Object{
		ID:   "https://example.com/post",
		Type: TypeObject,
		Name: "Post",
	}

	activity := Wrap(obj, ActivityCreate)

	if activity.Type != ActivityCreate {
		t.Errorf("Expected Create, got %s", activity.Type)
	}
	if activity.Object.ID != obj.ID {
		t.Errorf("Expected object to be preserved, got %s", activity.Object.ID)
	}
	if activity.Items != nil {
		t.Error("Expected no item activities for a plain object")
	}
}

func TestWrapCollection(t *testing.T) {
	published := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	collection := Object{
		ID:   "https://example.com/feed",
		Type: TypeOrderedCollection,
		OrderedItems: []Object{
			{ID: "https://example.com/1", Type: TypeObject, Published: &published},
			{ID: "https://example.com/2", Type: TypeObject},
		},
	}

	activity := Wrap(collection, ActivityUpdate)

	if activity.Type != ActivityUpdate {
		t.Errorf("Expected Update, got %s", activity.Type)
	}
	if len(activity.Items) != 2 {
		t.Fatalf("Expected 2 item activities, got %d", len(activity.Items))
	}
	for _, item := range activity.Items {
		if item.Type != ActivityCreate {
			t.Errorf("Expected entries to default to Create, got %s", item.Type)
		}
	}
}

func TestWrapIdempotent(t *testing.T) {
	collection := Object{
		ID:   "https://example.com/feed",
		Type: TypeOrderedCollection,
		OrderedItems: []Object{
			{ID: "https://example.com/1", Type: TypeObject},
		},
	}

	first := Wrap(collection, ActivityCreate)
	second := Wrap(collection, ActivityCreate)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected wrapping to be idempotent for the same input")
	}
	if !reflect.DeepEqual(first.Object, collection) {
		t.Error("Expected wrapped object to be structurally identical to the input")
	}
}

func TestObjectKey(t *testing.T) {
	withURL := Object{ID: "id-1", URL: &Link{Href: "https://example.com/1"}}
	if withURL.Key() != "https://example.com/1" {
		t.Errorf("Expected URL href as key, got %q", withURL.Key())
	}

	withoutURL := Object{ID: "id-2"}
	if withoutURL.Key() != "id-2" {
		t.Errorf("Expected id as key, got %q", withoutURL.Key())
	}
}

func TestEffectiveTime(t *testing.T) {
	published := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	both := Object{Published: &published, Updated: &updated}
	if !both.EffectiveTime().Equal(published) {
		t.Error("Expected published to win")
	}

	updatedOnly := Object{Updated: &updated}
	if !updatedOnly.EffectiveTime().Equal(updated) {
		t.Error("Expected updated as fallback")
	}

	neither := Object{}
	if !neither.EffectiveTime().Equal(time.Unix(0, 0)) {
		t.Error("Expected epoch zero fallback")
	}
}

func TestEqualIgnoresContext(t *testing.T) {
	a := Object{ID: "x", Type: TypeObject}
	b := Object{ID: "x", Type: TypeObject, Context: &Context{URL: "https://example.com/feed"}}

	if !Equal(a, b) {
		t.Error("Expected context to be ignored in equality")
	}

	c := Object{ID: "y", Type: TypeObject}
	if Equal(a, c) {
		t.Error("Expected different ids to compare unequal")
	}
}
