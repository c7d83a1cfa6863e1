package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/telemetry"
)

// eventField is the stream entry field carrying the JSON event document.
const eventField = "event"

// latestPosition asks for entries arriving from now on. It is resolved to a
// concrete entry ID before the first read; re-issuing it verbatim would
// re-resolve to "now" on every read and drop anything published between two
// blocking reads.
const latestPosition = "$"

// streamReader is the slice of the Redis client the stream depends on. A
// nil-error read with no messages means the blocking window elapsed with
// nothing new.
type streamReader interface {
	read(ctx context.Context, position string, block time.Duration) ([]redis.XMessage, error)
	lastID(ctx context.Context) (string, error)
}

// RedisStream reads feed entries from a Redis stream via XREAD. The stream
// entry ID doubles as the resume position token: reads always ask for
// entries after the last returned ID, so a consumer restarted with a saved
// position picks up where it left off.
type RedisStream struct {
	reader    streamReader
	position  string
	heartbeat time.Duration
	pending   []redis.XMessage
}

// NewRedisStream subscribes to the named stream starting after the given
// position. Position "$" means only entries arriving from now on. The
// heartbeat bounds how long a single blocking read waits before re-issuing.
func NewRedisStream(client *redis.Client, stream, position string, heartbeat time.Duration) *RedisStream {
	if position == "" {
		position = latestPosition
	}
	if heartbeat <= 0 {
		heartbeat = time.Second
	}
	return &RedisStream{
		reader:    redisReader{client: client, stream: stream},
		position:  position,
		heartbeat: heartbeat,
	}
}

// Next returns the next decodable entry. Entries that fail to decode are
// logged and skipped; their position is still consumed, which matches the
// pipeline's silently-skip handling of malformed records.
func (s *RedisStream) Next(ctx context.Context) (Change, error) {
	for {
		if len(s.pending) == 0 {
			if err := s.fill(ctx); err != nil {
				return Change{}, err
			}
			continue
		}

		msg := s.pending[0]
		s.pending = s.pending[1:]
		s.position = msg.ID

		ev, err := decodeMessage(msg)
		if err != nil {
			monitoring.Logf("feed: skipping entry %s: %v", msg.ID, err)
			continue
		}
		return Change{Position: msg.ID, Event: ev}, nil
	}
}

// fill blocks until entries arrive. The "$" position is pinned to the
// stream's last entry ID exactly once, so entries published while a read is
// being re-issued are still delivered.
func (s *RedisStream) fill(ctx context.Context) error {
	if s.position == latestPosition {
		id, err := s.reader.lastID(ctx)
		if err != nil {
			return err
		}
		s.position = id
	}
	msgs, err := s.reader.read(ctx, s.position, s.heartbeat)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return ctx.Err()
	}
	s.pending = append(s.pending, msgs...)
	return nil
}

// redisReader adapts *redis.Client to streamReader.
type redisReader struct {
	client *redis.Client
	stream string
}

func (r redisReader) read(ctx context.Context, position string, block time.Duration) ([]redis.XMessage, error) {
	res, err := r.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{r.stream, position},
		Block:   block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xread %s: %w", r.stream, err)
	}
	var msgs []redis.XMessage
	for _, str := range res {
		msgs = append(msgs, str.Messages...)
	}
	return msgs, nil
}

// lastID reports the newest entry ID in the stream. A stream with no
// entries yields "0-0", which reads everything subsequently added.
func (r redisReader) lastID(ctx context.Context) (string, error) {
	msgs, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("xrevrange %s: %w", r.stream, err)
	}
	if len(msgs) == 0 {
		return "0-0", nil
	}
	return msgs[0].ID, nil
}

// decodeMessage parses the JSON document out of a stream entry. Entries
// without a stable identifier get a generated one so dedup still has a key
// to work with.
func decodeMessage(msg redis.XMessage) (telemetry.Event, error) {
	raw, ok := msg.Values[eventField]
	if !ok {
		return telemetry.Event{}, fmt.Errorf("no %q field", eventField)
	}
	doc, ok := raw.(string)
	if !ok {
		return telemetry.Event{}, fmt.Errorf("%q field is %T, want string", eventField, raw)
	}
	ev, err := telemetry.DecodeEvent([]byte(doc))
	if err != nil {
		return telemetry.Event{}, err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}
