package infra

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"rest-gateway/middleware/ratelimit/domain"
)

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Allowed: true}))

	s = NewRedisStatsStore(nil)
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Allowed: true}))
}

func TestRedisStatsStore_PrefixIsTrimmed(t *testing.T) {
	s := NewRedisStatsStore(nil, WithStatsPrefix(":gw:stats:"))
	assert.Equal(t, "gw:stats", s.Prefix())
}

func TestRedisStatsStore_UnreachableServerReturnsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	s := NewRedisStatsStore(rdb, WithStatsTrackKeys(true))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := s.Record(ctx, domain.StatsEvent{Key: "k", Method: "GET", Path: "/hello", Reason: domain.ReasonRateExceeded})
	assert.Error(t, err)
}
