//go:build integration

package ratelimit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"nftmarket/internal/ratelimit"
	"nftmarket/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLimiterSuite) TestWindowAdmitsBurstThenRefuses() {
	ctx := context.Background()
	// One request per second with a burst of 3 gives a 3s window, long enough
	// that the test does not straddle a boundary in practice.
	limiter := ratelimit.NewRedisLimiter(s.redis.Client.Client, 1, 3)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "0xbuyer")
		s.Require().NoError(err)
		s.True(res.Allowed, "request %d", i)
		s.Equal(2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "0xbuyer")
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)

	other, err := limiter.Allow(ctx, "0xseller")
	s.Require().NoError(err)
	s.True(other.Allowed)
}

func (s *RedisLimiterSuite) TestCountersCarryExpiry() {
	ctx := context.Background()
	limiter := ratelimit.NewRedisLimiter(s.redis.Client.Client, 10, 10)

	_, err := limiter.Allow(ctx, "0xbuyer")
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "nftmarket:ratelimit:0xbuyer:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}
