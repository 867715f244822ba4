package resource

import (
	"reflect"
	"time"
)

type ObjectType string

const (
	TypeObject            ObjectType = "Object"
	TypeOrderedCollection ObjectType = "OrderedCollection"
)

// Link is a lightweight reference to a network location. Href is always
// an absolute URL by the time it is stored.
type Link struct {
	Href      string `json:"href"`
	MediaType string `json:"mediaType,omitempty"`
}

// Attribution describes the publisher (site or organization) behind a
// resource. Any field may be empty.
type Attribution struct {
	Name    string `json:"name,omitempty"`
	Summary string `json:"summary,omitempty"`
	Icon    *Link  `json:"icon,omitempty"`
}

// Context is a non-owning back-reference to the collection an item was
// aggregated from. It is attached at aggregation time, never by an
// extractor.
type Context struct {
	URL  string `json:"url,omitempty"`
	Name string `json:"name,omitempty"`
	Icon *Link  `json:"icon,omitempty"`
}

// Object is the canonical normalized representation of any fetched web
// resource. Extractors populate what they can; every field except ID
// and Type is optional and absence must be tolerated downstream.
type Object struct {
	ID           string       `json:"id"`
	Type         ObjectType   `json:"type"`
	URL          *Link        `json:"url,omitempty"`
	Name         string       `json:"name,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	Image        *Link        `json:"image,omitempty"`
	AttributedTo *Attribution `json:"attributedTo,omitempty"`
	Published    *time.Time   `json:"published,omitempty"`
	Updated      *time.Time   `json:"updated,omitempty"`
	OrderedItems []Object     `json:"orderedItems,omitempty"`
	Context      *Context     `json:"context,omitempty"`
}

// Key returns the identifier used for merge, dedupe and update-or-create
// decisions: the URL href when present, the ID otherwise.
func (o Object) Key() string {
	if o.URL != nil && o.URL.Href != "" {
		return o.URL.Href
	}
	return o.ID
}

// EffectiveTime is the timestamp items sort by: published, falling back
// to updated, falling back to the epoch.
func (o Object) EffectiveTime() time.Time {
	if o.Published != nil {
		return *o.Published
	}
	if o.Updated != nil {
		return *o.Updated
	}
	return time.Unix(0, 0).UTC()
}

// Equal reports structural equality of two objects. The aggregation
// context is excluded: it is attached after parsing and would make a
// re-extracted payload compare unequal to itself.
func Equal(a, b Object) bool {
	a.Context = nil
	b.Context = nil
	return reflect.DeepEqual(a, b)
}

type ActivityType string

const (
	ActivityCreate ActivityType = "Create"
	ActivityUpdate ActivityType = "Update"
	ActivityRemove ActivityType = "Remove"
)

// Activity is an ephemeral envelope expressing an incremental change to
// an object. For OrderedCollection objects, Items carries one activity
// per collection entry so a whole refresh can be consumed as a flat
// list of item-level changes.
type Activity struct {
	Type   ActivityType `json:"type"`
	Object Object       `json:"object"`
	Items  []Activity   `json:"items,omitempty"`
}
