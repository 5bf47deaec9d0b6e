package sessions

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PutGetDelete", func(t *testing.T) {
		store := NewInMemoryStore()

		prev, err := store.Put(ctx, &Session{UserID: "u1", ConversationID: "c1", CreatedAt: time.Now()})
		require.NoError(t, err)
		assert.Nil(t, prev)

		got, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "c1", got.ConversationID)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, store.Delete(ctx, "u1"))

		_, err = store.Get(ctx, "u1")
		assert.ErrorIs(t, err, ErrSessionNotFound)

		count, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("PutReplacesAndReturnsPrevious", func(t *testing.T) {
		store := NewInMemoryStore()

		_, err := store.Put(ctx, &Session{UserID: "u1", ConversationID: "c1"})
		require.NoError(t, err)

		prev, err := store.Put(ctx, &Session{UserID: "u1", ConversationID: "c2"})
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "c1", prev.ConversationID)

		count, _ := store.Count(ctx)
		assert.Equal(t, 1, count)
	})

	t.Run("DeleteUnknown", func(t *testing.T) {
		store := NewInMemoryStore()
		assert.ErrorIs(t, store.Delete(ctx, "nobody"), ErrSessionNotFound)
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Put(ctx, &Session{UserID: "u1"})
		assert.Error(t, err)
		_, err = store.Put(ctx, &Session{ConversationID: "c1"})
		assert.Error(t, err)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Put(ctx, &Session{UserID: "u1", ConversationID: "c1"})
		require.NoError(t, err)

		got, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		got.ConversationID = "mutated"

		again, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "c1", again.ConversationID)
	})
}

func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			_, err := store.Put(ctx, &Session{UserID: userID, ConversationID: fmt.Sprintf("conv-%d", i)})
			assert.NoError(t, err)
			_, _ = store.Count(ctx)
			if i%2 == 0 {
				assert.NoError(t, store.Delete(ctx, userID))
			}
		}(i)
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, count)
}
