// Package redisledger is an otp.Store backed by Redis, for deployments running more than one instance.
package redisledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/otp"
)

// expiredGrace keeps lapsed entries around long enough to be reported as expired rather than missing.
const expiredGrace = 10 * time.Minute

// takeScript returns 0: not found, 1: mismatch, 2: expired (deleted), 3: ok (deleted).
var takeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return 0
end
local e = cjson.decode(v)
if e.code ~= ARGV[1] then
	return 1
end
redis.call('DEL', KEYS[1])
if tonumber(ARGV[2]) > tonumber(e.expires_ms) then
	return 2
end
return 3
`)

type record struct {
	Code      string `json:"code"`
	CreatedMS int64  `json:"created_ms"`
	ExpiresMS int64  `json:"expires_ms"`
}

type store struct {
	client *redis.Client
	prefix string
}

var _ otp.Store = (*store)(nil) // interface compliance check

func NewStore(client *redis.Client, prefix string) otp.Store {
	return &store{client: client, prefix: prefix}
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
		PoolSize: conf.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return client, nil
}

func (s *store) key(purpose otp.Purpose, address string) string {
	return fmt.Sprintf("%s:otp:%s:%s", s.prefix, purpose, address)
}

func (s *store) Put(ctx context.Context, purpose otp.Purpose, address string, entry otp.Entry) error {
	val, err := json.Marshal(record{
		Code:      entry.Code,
		CreatedMS: entry.CreatedAt.UnixMilli(),
		ExpiresMS: entry.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return errors.Wrap(err, "encoding entry")
	}
	ttl := time.Until(entry.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		ttl = expiredGrace
	}
	return errors.Wrap(s.client.Set(ctx, s.key(purpose, address), val, ttl).Err(), "setting entry")
}

func (s *store) Get(ctx context.Context, purpose otp.Purpose, address string) (otp.Entry, error) {
	val, err := s.client.Get(ctx, s.key(purpose, address)).Bytes()
	if err == redis.Nil {
		return otp.Entry{}, otp.ErrNotFound
	} else if err != nil {
		return otp.Entry{}, errors.Wrap(err, "getting entry")
	}
	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return otp.Entry{}, errors.Wrap(err, "decoding entry")
	}
	return otp.Entry{
		Code:      rec.Code,
		CreatedAt: time.UnixMilli(rec.CreatedMS),
		ExpiresAt: time.UnixMilli(rec.ExpiresMS),
	}, nil
}

func (s *store) Take(ctx context.Context, purpose otp.Purpose, address, code string, now time.Time) error {
	res, err := takeScript.Run(ctx, s.client, []string{s.key(purpose, address)}, code, now.UnixMilli()).Int()
	if err != nil {
		return errors.Wrap(err, "taking entry")
	}
	switch res {
	case 0:
		return otp.ErrNotFound
	case 1:
		return otp.ErrMismatch
	case 2:
		return otp.ErrExpired
	}
	return nil
}

func (s *store) Delete(ctx context.Context, purpose otp.Purpose, address string) error {
	return errors.Wrap(s.client.Del(ctx, s.key(purpose, address)).Err(), "deleting entry")
}
