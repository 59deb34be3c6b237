// Package redisstore backs the routing registry with redis so per-user
// persona, engine and reply-limit choices survive restarts.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/glitchbyte/streambot/internal/routing"
)

const keyPrefix = "streambot:routing:"

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Load(ctx context.Context, userID string) (*routing.State, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var st routing.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) Save(ctx context.Context, userID string, st routing.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+userID, raw, 0).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
