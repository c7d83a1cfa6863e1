package relay

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/skyrelay/internal/dedup"
	"github.com/banshee-data/skyrelay/internal/mapper"
	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/telemetry"
	"github.com/banshee-data/skyrelay/internal/upload"
)

func init() {
	monitoring.SetLogger(nil)
}

func newTestRelay() (*Relay, *upload.Queue, *monitoring.Metrics) {
	queue := upload.NewQueue()
	metrics := monitoring.NewMetrics()
	r := New(mapper.New("aurora"), dedup.NewCache(0), queue, metrics)
	return r, queue, metrics
}

func vehicleEvent(id string, contributors ...string) telemetry.Event {
	contribs := make(map[string]telemetry.Value, len(contributors))
	for _, c := range contributors {
		contribs[c] = telemetry.Map(map[string]telemetry.Value{})
	}
	return telemetry.Event{
		ID:   id,
		Kind: telemetry.KindVehiclePosition,
		Attributes: map[string]telemetry.Value{
			"name":     telemetry.String("HORIZON"),
			"latitude": telemetry.Number(51.95),
			"time":     telemetry.String("07:08:09"),
		},
		Contributors: contribs,
	}
}

// A never-seen vehicle event with two contributors enqueues two parameter
// sets, identical except for the callsign, and bumps the counter by two.
func TestVehicleEventFansOutPerContributor(t *testing.T) {
	r, queue, metrics := newTestRelay()

	n := r.HandleEvent(vehicleEvent("ev1", "A", "B"))
	require.Equal(t, 2, n)
	require.Equal(t, 2, queue.Len())

	first, ok := queue.Pop()
	require.True(t, ok)
	second, ok := queue.Pop()
	require.True(t, ok)

	assert.Equal(t, "A", first["callsign"])
	assert.Equal(t, "B", second["callsign"])
	for k, v := range first {
		if k == "callsign" {
			continue
		}
		assert.Equal(t, v, second[k], "field %s differs", k)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ContributorUploads))
}

func TestRepeatedEventEnqueuesOnlyNewContributors(t *testing.T) {
	r, queue, metrics := newTestRelay()

	r.HandleEvent(vehicleEvent("ev1", "A", "B"))
	n := r.HandleEvent(vehicleEvent("ev1", "A", "B", "C"))

	require.Equal(t, 1, n)
	require.Equal(t, 3, queue.Len())
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ContributorUploads))
}

func TestStaleEventEnqueuesNothing(t *testing.T) {
	r, queue, metrics := newTestRelay()

	r.HandleEvent(vehicleEvent("ev1", "A"))
	n := r.HandleEvent(vehicleEvent("ev1", "A"))

	assert.Equal(t, 0, n)
	assert.Equal(t, 1, queue.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ContributorUploads))
}

// Events flagged invalid are skipped before the dedup cache sees them, so
// a later fixed version still reports every contributor.
func TestInvalidEventSkippedBeforeDedup(t *testing.T) {
	r, queue, _ := newTestRelay()

	ev := vehicleEvent("ev1", "A", "B")
	ev.Attributes["_fix_invalid"] = telemetry.Bool(true)
	n := r.HandleEvent(ev)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, queue.Len())

	n = r.HandleEvent(vehicleEvent("ev1", "A", "B"))
	assert.Equal(t, 2, n)
}

func TestObserverEventEnqueuesExactlyOne(t *testing.T) {
	r, queue, metrics := newTestRelay()

	ev := telemetry.Event{
		ID:   "obs1",
		Kind: telemetry.KindObserverPosition,
		Attributes: map[string]telemetry.Value{
			"chase":    telemetry.Bool(true),
			"callsign": telemetry.String("M0AAA"),
			"latitude": telemetry.Number(52.1),
		},
		CreatedAt: "2026-08-31T07:08:09Z",
	}

	n := r.HandleEvent(ev)
	require.Equal(t, 1, n)

	p, ok := queue.Pop()
	require.True(t, ok)
	assert.Equal(t, "M0AAA_chase", p["vehicle"])

	// The contributor-upload counter only moves for vehicle events.
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ContributorUploads))
}

func TestNonChaseObserverSkipped(t *testing.T) {
	r, queue, _ := newTestRelay()

	ev := telemetry.Event{
		ID:   "obs1",
		Kind: telemetry.KindObserverPosition,
		Attributes: map[string]telemetry.Value{
			"callsign": telemetry.String("M0AAA"),
		},
		CreatedAt: "2026-08-31T07:08:09Z",
	}

	assert.Equal(t, 0, r.HandleEvent(ev))
	assert.Equal(t, 0, queue.Len())
}

// Once the queue is closed for shutdown, nothing is enqueued and the
// counter must not move: it reports parameter sets actually handed to
// the workers.
func TestClosedQueueCountsNothing(t *testing.T) {
	r, queue, metrics := newTestRelay()
	queue.Close()

	n := r.HandleEvent(vehicleEvent("ev1", "A", "B"))
	assert.Equal(t, 0, n)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ContributorUploads))

	obs := telemetry.Event{
		ID:   "obs1",
		Kind: telemetry.KindObserverPosition,
		Attributes: map[string]telemetry.Value{
			"chase":    telemetry.Bool(true),
			"callsign": telemetry.String("M0AAA"),
		},
		CreatedAt: "2026-08-31T07:08:09Z",
	}
	assert.Equal(t, 0, r.HandleEvent(obs))
}

func TestUnknownKindSkipped(t *testing.T) {
	r, queue, _ := newTestRelay()

	assert.Equal(t, 0, r.HandleEvent(telemetry.Event{ID: "x", Kind: "weather_report"}))
	assert.Equal(t, 0, queue.Len())
}
