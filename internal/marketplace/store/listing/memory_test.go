package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/sentinel"
	"nftmarket/pkg/platform/tx"
)

func newListing(t *testing.T, item models.ItemID, price models.Amount) *models.Listing {
	t.Helper()
	key, err := models.NewItemKey("0xpunks", item)
	require.NoError(t, err)
	l, err := models.NewListing(key, price, "0xseller")
	require.NoError(t, err)
	return l
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("create find update delete", func(t *testing.T) {
		store := NewInMemory()
		l := newListing(t, "1", 100)

		require.NoError(t, store.Create(ctx, l))
		assert.ErrorIs(t, store.Create(ctx, l), sentinel.ErrConflict)

		require.NoError(t, store.UpdatePrice(ctx, l.Key(), 300))
		got, err := store.Find(ctx, l.Key())
		require.NoError(t, err)
		assert.Equal(t, models.Amount(300), got.Price)

		require.NoError(t, store.Delete(ctx, l.Key()))
		_, err = store.Find(ctx, l.Key())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, l.Key()), sentinel.ErrNotFound)
		assert.ErrorIs(t, store.UpdatePrice(ctx, l.Key(), 1), sentinel.ErrNotFound)
	})

	t.Run("find returns a copy", func(t *testing.T) {
		store := NewInMemory()
		l := newListing(t, "1", 100)
		require.NoError(t, store.Create(ctx, l))

		got, err := store.Find(ctx, l.Key())
		require.NoError(t, err)
		got.Price = 1

		again, err := store.Find(ctx, l.Key())
		require.NoError(t, err)
		assert.Equal(t, models.Amount(100), again.Price)
	})

	t.Run("rollback restores prior state", func(t *testing.T) {
		store := NewInMemory()
		kept := newListing(t, "kept", 100)
		gone := newListing(t, "gone", 50)
		require.NoError(t, store.Create(ctx, kept))
		require.NoError(t, store.Create(ctx, gone))

		boom := errors.New("boom")
		err := tx.NewMemoryRunner(0).RunInTx(ctx, func(txCtx context.Context) error {
			require.NoError(t, store.Create(txCtx, newListing(t, "new", 10)))
			require.NoError(t, store.UpdatePrice(txCtx, kept.Key(), 999))
			require.NoError(t, store.Delete(txCtx, gone.Key()))
			return boom
		})
		require.ErrorIs(t, err, boom)

		assert.Equal(t, 2, store.Count())
		got, err := store.Find(ctx, kept.Key())
		require.NoError(t, err)
		assert.Equal(t, models.Amount(100), got.Price)
		_, err = store.Find(ctx, gone.Key())
		assert.NoError(t, err)
	})
}
