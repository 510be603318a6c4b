package session

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const DefaultRedisKey = "thriftctl:session"

// RedisStore keeps the whole session as one JSON value under one key.
// Update runs inside WATCH/MULTI so concurrent writers cannot interleave.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connect to redis at %s", addr)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (*Session, error) {
	return r.get(ctx, r.client)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "store session")
	}
	return nil
}

func (r *RedisStore) Update(ctx context.Context, fn func(*Session) error) error {
	txf := func(tx *redis.Tx) error {
		s, err := r.get(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		data, err := json.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "encode session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, data, 0)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, r.key)
	if errors.Is(err, redis.TxFailedErr) {
		return errors.Wrap(err, "session changed during update")
	}
	return err
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(err, "clear session")
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) get(ctx context.Context, c getter) (*Session, error) {
	data, err := c.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return &s, nil
}
