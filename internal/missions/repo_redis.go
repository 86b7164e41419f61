package missions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	missionKeyPrefix = "coach:mission:" // coach:mission:{user_id}
	missionTTL       = 90 * 24 * time.Hour
)

// RedisRepo persists missions as JSON blobs keyed by user.
type RedisRepo struct {
	client *redis.Client
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Put(ctx context.Context, mission Mission) error {
	mission.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(mission)
	if err != nil {
		return fmt.Errorf("failed to marshal mission: %w", err)
	}
	if err := r.client.Set(ctx, r.missionKey(mission.UserID), data, missionTTL).Err(); err != nil {
		return fmt.Errorf("failed to store mission: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, userID string) (Mission, error) {
	data, err := r.client.Get(ctx, r.missionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Mission{}, ErrNotFound
	}
	if err != nil {
		return Mission{}, fmt.Errorf("failed to get mission: %w", err)
	}
	var mission Mission
	if err := json.Unmarshal([]byte(data), &mission); err != nil {
		return Mission{}, fmt.Errorf("failed to unmarshal mission: %w", err)
	}
	mission.UserID = userID
	return mission, nil
}

func (r *RedisRepo) missionKey(userID string) string {
	return fmt.Sprintf("%s%s", missionKeyPrefix, userID)
}
