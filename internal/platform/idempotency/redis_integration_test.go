//go:build integration

package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nftmarket/internal/platform/idempotency"
	"nftmarket/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *idempotency.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = idempotency.NewRedisStore(s.redis.Client.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestClaimIsExclusive() {
	ctx := context.Background()

	ok, err := s.store.Claim(ctx, "0xbuyer|POST|/v1/listings|k1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Claim(ctx, "0xbuyer|POST|/v1/listings|k1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestReleaseAllowsRetry() {
	ctx := context.Background()
	key := "0xbuyer|POST|/v1/listings|k2"

	_, err := s.store.Claim(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Release(ctx, key))

	ok, err := s.store.Claim(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisStoreSuite) TestClaimExpires() {
	ctx := context.Background()
	key := "0xbuyer|POST|/v1/listings|k3"

	_, err := s.store.Claim(ctx, key, time.Second)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		ok, err := s.store.Claim(ctx, key, time.Second)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
}
