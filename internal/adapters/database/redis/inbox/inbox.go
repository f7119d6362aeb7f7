package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxFeedLength = 100

// Message is one in-app notification as stored in a user's feed.
type Message struct {
	Kind      string    `json:"kind"`
	EventID   string    `json:"event_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage keeps a capped per-user feed of in-app notifications.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Push prepends a message to the user's feed, trimming it to the cap.
func (s *Storage) Push(ctx context.Context, userID int64, message Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	key := feedKey(userID)
	if err = s.redis.LPush(ctx, key, messageBytes).Err(); err != nil {
		return err
	}
	return s.redis.LTrim(ctx, key, 0, maxFeedLength-1).Err()
}

// Feed returns up to limit most recent messages for the user.
func (s *Storage) Feed(ctx context.Context, userID int64, limit int) ([]Message, error) {
	raw, err := s.redis.LRange(ctx, feedKey(userID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var message Message
		if err = json.Unmarshal([]byte(item), &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func feedKey(userID int64) string {
	return fmt.Sprintf("inbox:%d", userID)
}
