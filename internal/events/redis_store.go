package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionEventsPrefix = "admin:events:session:" // List of events for a session: admin:events:session:{session_id}
	allEventsKey        = "admin:events:all"      // Capped list of events across sessions
	eventChannel        = "admin:events:stream"   // Pub/Sub channel for new events
	maxEventsPerList    = 500
	DefaultTTL          = 7 * 24 * time.Hour
)

// RedisStore keeps transition events in capped redis lists and publishes
// each one on a pub/sub channel.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := s.client.Pipeline()
	if ev.SessionID != "" {
		key := s.sessionKey(ev.SessionID)
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, maxEventsPerList-1)
		pipe.Expire(ctx, key, s.ttl)
	}
	pipe.LPush(ctx, allEventsKey, data)
	pipe.LTrim(ctx, allEventsKey, 0, maxEventsPerList-1)
	pipe.Expire(ctx, allEventsKey, s.ttl)
	pipe.Publish(ctx, eventChannel, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := allEventsKey
	if sessionID != "" {
		key = s.sessionKey(sessionID)
	}

	items, err := s.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]Event, 0, len(items))
	for _, item := range items {
		var ev Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Subscribe streams newly recorded events until ctx is done. The returned
// channel is closed when the subscription ends.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := s.client.Subscribe(ctx, eventChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", sessionEventsPrefix, sessionID)
}
