package repository

import (
	"context"
	"encoding/json"
	"sync"

	"travel-advisor-go/internal/model"
)

// memoryConversationRepository 是 ConversationRepository 的进程内实现，
// 用于测试和无 Redis 的最小化部署。不同 key 之间的并发访问是安全的。
type memoryConversationRepository struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryConversationRepository 创建一个内存版 ConversationRepository。
func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{states: make(map[string][]byte)}
}

func (r *memoryConversationRepository) Get(_ context.Context, threadID string) (*model.ConversationState, error) {
	r.mu.RLock()
	data, ok := r.states[threadID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var state model.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *memoryConversationRepository) Upsert(_ context.Context, threadID string, state *model.ConversationState) error {
	// 序列化存储，避免调用方与存储共享同一份可变切片
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.states[threadID] = data
	r.mu.Unlock()
	return nil
}

func (r *memoryConversationRepository) Delete(_ context.Context, threadID string) error {
	r.mu.Lock()
	delete(r.states, threadID)
	r.mu.Unlock()
	return nil
}
