package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// changeChannel carries document-change fan-out between store contexts.
const changeChannel = "therin:store:changes"

// changeMessage is published on every Save. Origin identifies the writing
// store instance; subscribers drop their own messages, matching the
// same-context suppression contract of Watch.
type changeMessage struct {
	Origin string          `json:"origin"`
	Key    string          `json:"key"`
	Data   json.RawMessage `json:"data"`
}

// RedisStore keeps documents in redis string keys and fans out changes over
// pub/sub.
type RedisStore struct {
	client *redis.Client
	origin string
}

// NewRedisStore connects and pings so an unreachable backend fails at
// startup, not on first use.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		origin: uuid.NewString(),
	}, nil
}

func (s *RedisStore) Load(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document '%s': %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode document '%s': %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document '%s': %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document '%s': %w", key, err)
	}

	msg, err := json.Marshal(changeMessage{Origin: s.origin, Key: key, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode change message for '%s': %w", key, err)
	}
	// Best-effort fan-out: the document is already durable, a missed publish
	// only delays other contexts until their next load.
	if err := s.client.Publish(ctx, changeChannel, msg).Err(); err != nil {
		log.Printf("RedisStore: failed to publish change for '%s': %v", key, err)
	}
	return nil
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan Event, error) {
	sub := s.client.Subscribe(ctx, changeChannel)
	// Confirm the subscription before returning so callers do not miss
	// writes made right after Watch.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to change channel: %w", err)
	}

	events := make(chan Event, 8)
	go func() {
		defer close(events)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change changeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Printf("RedisStore: dropping malformed change message: %v", err)
					continue
				}
				if change.Origin == s.origin {
					continue
				}
				select {
				case events <- Event{Key: change.Key, Data: change.Data}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	return nil
}
