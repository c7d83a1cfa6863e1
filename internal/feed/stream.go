// Package feed consumes the external change stream and drives the relay
// pipeline. The stream is an ordered sequence of insert/update events with
// at-least-once delivery and a resumable position token; duplicates are
// expected and absorbed downstream by the dedup cache.
package feed

import (
	"context"

	"github.com/banshee-data/skyrelay/internal/telemetry"
)

// Change is one delivered feed entry: the decoded event plus the position
// token to resume from after it has been handled.
type Change struct {
	Position string
	Event    telemetry.Event
}

// Stream is the transport boundary. Next blocks until an entry is
// available or ctx is done. Implementations advance their internal position
// as entries are returned.
type Stream interface {
	Next(ctx context.Context) (Change, error)
}

// Eligible is the feed predicate: vehicle-position events are forwarded
// only once they carry already-parsed data, observer-position events are
// always forwarded.
func Eligible(ev telemetry.Event) bool {
	switch ev.Kind {
	case telemetry.KindObserverPosition:
		return true
	case telemetry.KindVehiclePosition:
		_, parsed := ev.Attr("_parsed")
		return parsed
	default:
		return false
	}
}
