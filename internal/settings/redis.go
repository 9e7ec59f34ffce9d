package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pharmacy-dashboard/internal/models"
)

// RedisStore keeps settings as JSON under settings:<id>. A zero ttl keeps
// them forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

func key(id string) string {
	return fmt.Sprintf("settings:%s", id)
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Load(ctx context.Context, id string) (models.Settings, error) {
	if err := checkID(id); err != nil {
		return models.Settings{}, err
	}

	data, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	s := models.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, s models.Settings) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := Validate(s); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.client.Set(ctx, key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
