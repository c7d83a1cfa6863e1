package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"
)

// RecordKind identifies the two record types the feed delivers.
type RecordKind string

const (
	// KindVehiclePosition is a telemetry update about a tracked vehicle's
	// location and state.
	KindVehiclePosition RecordKind = "vehicle_position"
	// KindObserverPosition is a telemetry update about a ground observer's
	// own location.
	KindObserverPosition RecordKind = "observer_position"
)

// Event is a single record delivered by the change feed. Events are
// read-only within the pipeline and discarded after processing.
type Event struct {
	ID   string     `json:"id"`
	Kind RecordKind `json:"kind"`

	// Attributes holds the record's type-specific fields.
	Attributes map[string]Value `json:"attributes"`

	// Contributors maps contributor identifier to per-contributor metadata.
	// Populated for vehicle-position records only.
	Contributors map[string]Value `json:"contributors,omitempty"`

	// CreatedAt is the record's creation timestamp as an RFC3339 string.
	CreatedAt string `json:"created_at,omitempty"`
}

// DecodeEvent parses a feed document into an Event.
func DecodeEvent(doc []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(doc, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind != KindVehiclePosition && ev.Kind != KindObserverPosition {
		return Event{}, fmt.Errorf("decode event: unknown kind %q", ev.Kind)
	}
	return ev, nil
}

// Attr returns the named attribute.
func (e Event) Attr(name string) (Value, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// ContributorIDs returns the contributor identifiers in sorted order so
// fan-out is deterministic.
func (e Event) ContributorIDs() []string {
	ids := make([]string, 0, len(e.Contributors))
	for id := range e.Contributors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
