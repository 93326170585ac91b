package hub

import (
	"net/url"
	"time"
	"unicode"
)

// Event kinds produced by the store, one per successful mutation.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Event is an ephemeral change notification. Record is the post-operation
// snapshot (for deletes, the last state before removal).
type Event struct {
	ID       string
	Sequence uint64
	Kind     string
	Resource string
	RecordID string
	Time     time.Time
	Record   map[string]any
}

// WireName renders the TMF-style event type name, e.g. a "created" event on
// resource "productOffering" becomes "ProductOfferingCreateEvent".
func (e Event) WireName() string {
	name := e.Resource
	if name != "" {
		runes := []rune(name)
		runes[0] = unicode.ToUpper(runes[0])
		name = string(runes)
	}

	switch e.Kind {
	case KindCreated:
		return name + "CreateEvent"
	case KindUpdated:
		return name + "AttributeValueChangeEvent"
	case KindDeleted:
		return name + "DeleteEvent"
	default:
		return name + "Event"
	}
}

// WirePayload renders the TMF-style notification body POSTed to listeners.
func (e Event) WirePayload() map[string]any {
	return map[string]any{
		"eventId":   e.ID,
		"eventTime": e.Time.UTC().Format(time.RFC3339),
		"eventType": e.WireName(),
		"event": map[string]any{
			e.Resource: e.Record,
		},
	}
}

// matchesQuery checks a subscription query against the event. An empty query
// matches everything. A query in "eventType=X" form matches either the wire
// name or the plain kind; a bare value is compared the same way.
func (e Event) matchesQuery(query string) bool {
	if query == "" {
		return true
	}

	if vals, err := url.ParseQuery(query); err == nil {
		if want := vals.Get("eventType"); want != "" {
			return want == e.WireName() || want == e.Kind
		}
	}

	return query == e.Kind || query == e.WireName()
}
