package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"travel-advisor-go/internal/model"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_GetMissIsNotAnError(t *testing.T) {
	repo := NewMemoryConversationRepository()
	state, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestMemoryRepository_UpsertThenGet(t *testing.T) {
	repo := NewMemoryConversationRepository()
	state := &model.ConversationState{
		Messages: []model.ChatMessage{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: "hello"},
		},
		Country:   "Japan",
		QueryType: model.QueryTypeCountry,
	}

	require.NoError(t, repo.Upsert(context.Background(), "t1", state))

	loaded, err := repo.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, state.Messages, loaded.Messages)
	require.Equal(t, "Japan", loaded.Country)
	require.Equal(t, model.QueryTypeCountry, loaded.QueryType)
}

func TestMemoryRepository_UpsertIsFullReplace(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "t1", &model.ConversationState{Country: "France"}))
	require.NoError(t, repo.Upsert(ctx, "t1", &model.ConversationState{Country: ""}))

	loaded, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, loaded.Country)
}

func TestMemoryRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, "t1", &model.ConversationState{
		Messages: []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}},
	}))

	first, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	first.Messages[0].Content = "mutated"

	second, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "hi", second.Messages[0].Content)
}

func TestMemoryRepository_DeleteUnknownKeyIsNoOp(t *testing.T) {
	repo := NewMemoryConversationRepository()
	require.NoError(t, repo.Delete(context.Background(), "missing"))
}

func TestMemoryRepository_DeleteRemovesState(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "t1", &model.ConversationState{Country: "Japan"}))
	require.NoError(t, repo.Delete(ctx, "t1"))

	state, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestMemoryRepository_ConcurrentDistinctKeys(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	errs := make(chan error, 20)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("thread-%d", i)
			if err := repo.Upsert(ctx, key, &model.ConversationState{Country: key}); err != nil {
				errs <- err
				return
			}
			loaded, err := repo.Get(ctx, key)
			if err != nil {
				errs <- err
				return
			}
			if loaded == nil || loaded.Country != key {
				errs <- fmt.Errorf("unexpected state for %s: %+v", key, loaded)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
