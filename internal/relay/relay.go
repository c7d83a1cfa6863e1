// Package relay wires the pipeline together: kind dispatch, field mapping,
// contributor dedup, and enqueueing for delivery.
package relay

import (
	"github.com/banshee-data/skyrelay/internal/dedup"
	"github.com/banshee-data/skyrelay/internal/mapper"
	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/telemetry"
	"github.com/banshee-data/skyrelay/internal/upload"
)

// Relay is the pipeline entry point invoked by the feed consumer for every
// matching event. It owns no goroutines itself; the queue decouples it from
// the upload workers.
type Relay struct {
	Mapper  *mapper.Mapper
	Cache   *dedup.Cache
	Queue   *upload.Queue
	Metrics *monitoring.Metrics
}

// New assembles a relay.
func New(m *mapper.Mapper, cache *dedup.Cache, queue *upload.Queue, metrics *monitoring.Metrics) *Relay {
	return &Relay{Mapper: m, Cache: cache, Queue: queue, Metrics: metrics}
}

// HandleEvent dispatches one feed event and returns the number of parameter
// sets enqueued. Ineligible or stale events enqueue nothing; that is not an
// error.
func (r *Relay) HandleEvent(ev telemetry.Event) int {
	var n int
	switch ev.Kind {
	case telemetry.KindVehiclePosition:
		n = r.vehiclePosition(ev)
	case telemetry.KindObserverPosition:
		n = r.observerPosition(ev)
	default:
		monitoring.Logf("skipping event %s: unknown kind %q", ev.ID, ev.Kind)
		return 0
	}
	monitoring.Logf("event %s: enqueued %d, queue length %d", ev.ID, n, r.Queue.Len())
	return n
}

func (r *Relay) vehiclePosition(ev telemetry.Event) int {
	if r.Mapper.InvalidData(ev) {
		monitoring.Logf("not uploading %s: flagged invalid", ev.ID)
		return 0
	}

	fresh := r.Cache.Report(ev.ID, ev.ContributorIDs())
	if len(fresh) == 0 {
		monitoring.Logf("ignoring %s: no new contributors", ev.ID)
		return 0
	}

	sets := r.Mapper.Vehicle(ev, fresh)
	var pushed int
	for _, p := range sets {
		if r.Queue.Push(p) {
			pushed++
		}
	}
	if r.Metrics != nil {
		r.Metrics.ContributorUploads.Add(float64(pushed))
		r.Metrics.QueueDepth.Set(float64(r.Queue.Len()))
	}
	return pushed
}

func (r *Relay) observerPosition(ev telemetry.Event) int {
	p, ok := r.Mapper.Observer(ev)
	if !ok {
		return 0
	}
	if !r.Queue.Push(p) {
		return 0
	}
	if r.Metrics != nil {
		r.Metrics.QueueDepth.Set(float64(r.Queue.Len()))
	}
	return 1
}
