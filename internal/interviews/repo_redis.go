package interviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "coach:interview:" // coach:interview:{session_id}
	userSessionsPrefix = "coach:user:"      // coach:user:{user_id}:interviews
	sessionTTL         = 7 * 24 * time.Hour
)

// RedisRepo persists sessions as JSON blobs with a rolling TTL.
type RedisRepo struct {
	client *redis.Client
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Create(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.sessionKey(session.ID), data, sessionTTL)
	pipe.SAdd(ctx, r.userSessionsKey(session.UserID), session.ID)
	pipe.Expire(ctx, r.userSessionsKey(session.UserID), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisRepo) Update(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.sessionKey(session.ID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Transition applies fn under WATCH so a check made against the loaded
// session still holds when the write lands. A concurrent write to the same
// key aborts the transaction and surfaces as ErrConflict.
func (r *RedisRepo) Transition(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error) {
	key := r.sessionKey(sessionID)
	var session *Session

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		var loaded Session
		if err := json.Unmarshal([]byte(data), &loaded); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if err := fn(&loaded); err != nil {
			return err
		}

		loaded.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(&loaded)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, sessionTTL)
			return nil
		})
		if err != nil {
			return err
		}
		session = &loaded
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisRepo) ListByUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user: %w", err)
	}
	return ids, nil
}

func (r *RedisRepo) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, sessionID)
}

func (r *RedisRepo) userSessionsKey(userID string) string {
	return fmt.Sprintf("%s%s:interviews", userSessionsPrefix, userID)
}
