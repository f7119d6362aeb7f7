package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

// Storage caches event projections so admission and scheduling reads do not
// hit postgres on every submission.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Get returns the cached event projection, or nil on a cache miss.
func (s *Storage) Get(ctx context.Context, eventID string) (*entity.Event, error) {
	eventBytes, err := s.redis.Get(ctx, eventID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var event entity.Event
	if err = json.Unmarshal([]byte(eventBytes), &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (s *Storage) Set(ctx context.Context, event *entity.Event, expiration time.Duration) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, event.ID, eventBytes, expiration).Err()
}

func (s *Storage) Clear(ctx context.Context, eventID string) error {
	return s.redis.Del(ctx, eventID).Err()
}
