package feed

import (
	"context"
	"time"

	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/telemetry"
)

// Positions persists the resume position between runs. Save failures are
// logged, not fatal: losing a position only widens the at-least-once replay
// window on the next start.
type Positions interface {
	Save(ctx context.Context, position string) error
}

// Dispatcher is the pipeline entry point the consumer feeds.
type Dispatcher interface {
	HandleEvent(ev telemetry.Event) int
}

// Consumer drives the pipeline from a change stream. It runs until the
// context is cancelled, reconnecting with capped backoff on stream errors;
// the subscription itself must never die to a transient fault.
type Consumer struct {
	Stream    Stream
	Dispatch  Dispatcher
	Positions Positions // optional

	// MaxBackoff caps the reconnect delay. Zero means 30 seconds.
	MaxBackoff time.Duration
}

// NewConsumer creates a consumer. positions may be nil when resume
// persistence is not wanted.
func NewConsumer(stream Stream, dispatch Dispatcher, positions Positions) *Consumer {
	return &Consumer{Stream: stream, Dispatch: dispatch, Positions: positions}
}

// Run consumes the stream until ctx is done. The returned error is always
// the context's.
func (c *Consumer) Run(ctx context.Context) error {
	maxBackoff := c.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	initial := time.Second
	if initial > maxBackoff {
		initial = maxBackoff
	}
	backoff := initial

	for {
		change, err := c.Stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			monitoring.Logf("feed: stream error, retrying in %v: %v", backoff, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initial

		if Eligible(change.Event) {
			c.Dispatch.HandleEvent(change.Event)
		}
		if c.Positions != nil && change.Position != "" {
			if err := c.Positions.Save(ctx, change.Position); err != nil {
				monitoring.Logf("feed: checkpoint save failed at %s: %v", change.Position, err)
			}
		}
	}
}
