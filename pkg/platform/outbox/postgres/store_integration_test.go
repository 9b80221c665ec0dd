//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	pgplatform "nftmarket/internal/platform/postgres"
	"nftmarket/pkg/platform/outbox"
	"nftmarket/pkg/platform/outbox/postgres"
	"nftmarket/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *StoreSuite) entry(aggregateID string, at time.Time) outbox.Entry {
	e, err := outbox.NewEntry("item", aggregateID, "marketplace.item_listed", map[string]string{"id": aggregateID}, at)
	s.Require().NoError(err)
	return e
}

func (s *StoreSuite) TestFetchReturnsOldestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	later := s.entry("0xpunks/2", base.Add(time.Second))
	earlier := s.entry("0xpunks/1", base)
	s.Require().NoError(s.store.Append(ctx, later))
	s.Require().NoError(s.store.Append(ctx, earlier))

	entries, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(earlier.ID, entries[0].ID)
	s.Equal(later.ID, entries[1].ID)
	s.JSONEq(`{"id":"0xpunks/1"}`, string(entries[0].Payload))

	limited, err := s.store.FetchUnpublished(ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *StoreSuite) TestMarkPublishedHidesEntries() {
	ctx := context.Background()
	e := s.entry("0xpunks/1", time.Now())
	s.Require().NoError(s.store.Append(ctx, e))

	s.Require().NoError(s.store.MarkPublished(ctx, []uuid.UUID{e.ID}, time.Now()))

	entries, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StoreSuite) TestAppendRollsBackWithTransaction() {
	ctx := context.Background()
	runner := pgplatform.NewTxRunner(s.postgres.DB, 0)
	boom := errors.New("boom")

	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Append(txCtx, s.entry("0xpunks/1", time.Now())))
		return boom
	})
	s.ErrorIs(err, boom)

	entries, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}
