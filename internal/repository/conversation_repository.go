// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel-advisor-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ConversationRepository 定义了会话检查点的操作接口。
// Get 未命中不算错误：返回 (nil, nil) 表示该线程尚无历史。
type ConversationRepository interface {
	Get(ctx context.Context, threadID string) (*model.ConversationState, error)
	Upsert(ctx context.Context, threadID string, state *model.ConversationState) error
	Delete(ctx context.Context, threadID string) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewConversationRepository 创建一个基于 Redis 的 ConversationRepository 实例。
// ttl 为检查点的过期时间，传 0 表示永不过期。
func NewConversationRepository(redisClient *redis.Client, ttl time.Duration) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient, ttl: ttl}
}

func stateKey(threadID string) string {
	return fmt.Sprintf("thread:%s:state", threadID)
}

// Get 从 Redis 获取会话检查点，key 不存在时返回 (nil, nil)。
func (r *redisConversationRepository) Get(ctx context.Context, threadID string) (*model.ConversationState, error) {
	jsonData, err := r.redisClient.Get(ctx, stateKey(threadID)).Result()
	if err == redis.Nil {
		return nil, nil // No state yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation state: %w", err)
	}
	var state model.ConversationState
	if err := json.Unmarshal([]byte(jsonData), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}
	return &state, nil
}

// Upsert 全量覆盖写入会话检查点，按 key 维度 last-writer-wins。
func (r *redisConversationRepository) Upsert(ctx context.Context, threadID string, state *model.ConversationState) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}
	if err := r.redisClient.Set(ctx, stateKey(threadID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set conversation state: %w", err)
	}
	return nil
}

// Delete 删除会话检查点，key 不存在时同样视为成功。
func (r *redisConversationRepository) Delete(ctx context.Context, threadID string) error {
	if err := r.redisClient.Del(ctx, stateKey(threadID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation state: %w", err)
	}
	return nil
}
