package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"travel-advisor-go/internal/model"
	"travel-advisor-go/internal/repository"
	"travel-advisor-go/pkg/llm"
	"travel-advisor-go/pkg/log"

	"github.com/google/uuid"
)

// ChatService 是会话编排的核心：加载线程状态、提取实体并分类、裁剪历史、
// 选择并渲染 prompt、调用模型、追加回复并持久化。
type ChatService interface {
	// Respond 处理一条用户消息并返回助手回复与线程 ID。
	// threadID 传空时生成新线程。
	Respond(ctx context.Context, message, threadID string) (model.ChatMessage, string, error)
	// RespondStream 与 Respond 等价，但把模型回复分块写入 writer。
	RespondStream(ctx context.Context, message, threadID string, writer llm.MessageWriter) (model.ChatMessage, string, error)
	// History 返回线程的完整消息历史，线程不存在时返回空切片而非错误。
	History(ctx context.Context, threadID string) ([]model.ChatMessage, error)
	// Clear 删除线程的会话状态，线程不存在时同样视为成功。
	Clear(ctx context.Context, threadID string) error
}

type chatService struct {
	conversationRepo repository.ConversationRepository
	exchangeRepo     repository.ExchangeRepository
	llmClient        llm.Client
	historyBudget    int

	// 按线程 ID 互斥，避免同一线程的并发请求互相覆盖检查点
	threadLocks sync.Map // key: threadID, value: *sync.Mutex
}

// NewChatService 创建一个新的 ChatService 实例。
// exchangeRepo 可以为 nil，此时不写问答归档。
func NewChatService(conversationRepo repository.ConversationRepository, exchangeRepo repository.ExchangeRepository, llmClient llm.Client, historyBudget int) ChatService {
	if historyBudget < 1 {
		historyBudget = 20
	}
	return &chatService{
		conversationRepo: conversationRepo,
		exchangeRepo:     exchangeRepo,
		llmClient:        llmClient,
		historyBudget:    historyBudget,
	}
}

// Respond 见接口说明。
func (s *chatService) Respond(ctx context.Context, message, threadID string) (model.ChatMessage, string, error) {
	return s.respond(ctx, message, threadID, func(ctx context.Context, messages []llm.Message) (string, error) {
		return s.llmClient.Chat(ctx, messages)
	})
}

// RespondStream 见接口说明。
func (s *chatService) RespondStream(ctx context.Context, message, threadID string, writer llm.MessageWriter) (model.ChatMessage, string, error) {
	return s.respond(ctx, message, threadID, func(ctx context.Context, messages []llm.Message) (string, error) {
		return s.llmClient.StreamChatMessages(ctx, messages, writer)
	})
}

// respond 按顺序执行编排步骤：解析线程 ID → 加载状态 → 追加用户消息 →
// 实体提取/分类 → 裁剪 → 渲染 prompt → 调用模型 → 追加回复并持久化。
// 模型调用失败时不落任何写入，线程历史保持调用前的状态。
func (s *chatService) respond(ctx context.Context, message, threadID string, invoke func(context.Context, []llm.Message) (string, error)) (model.ChatMessage, string, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}

	mu := s.lockThread(threadID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.conversationRepo.Get(ctx, threadID)
	if err != nil {
		return model.ChatMessage{}, "", fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state == nil {
		state = &model.ConversationState{}
	}

	userMsg := model.ChatMessage{Role: model.RoleUser, Content: message, Timestamp: time.Now()}
	state.Messages = append(state.Messages, userMsg)

	// 分类只信当前这一轮：上一轮的国家与类型被新结果覆盖
	countries := ExtractCountries(message)
	state.QueryType = ClassifyQuery(len(countries) > 0)
	if len(countries) > 0 {
		state.Country = countries[0]
	} else {
		state.Country = ""
	}

	window := TrimMessages(state.Messages, s.historyBudget)
	systemPrompt := RenderPrompt(SelectPrompt(state.QueryType), state.Country)

	answer, err := invoke(ctx, composeMessages(systemPrompt, window))
	if err != nil {
		return model.ChatMessage{}, "", err
	}

	reply := model.ChatMessage{Role: model.RoleAssistant, Content: answer, Timestamp: time.Now()}
	state.Messages = append(state.Messages, reply)

	if err := s.conversationRepo.Upsert(ctx, threadID, state); err != nil {
		return model.ChatMessage{}, "", fmt.Errorf("failed to persist conversation state: %w", err)
	}

	s.archiveExchange(threadID, message, answer, state)

	return reply, threadID, nil
}

// History 见接口说明。
func (s *chatService) History(ctx context.Context, threadID string) ([]model.ChatMessage, error) {
	state, err := s.conversationRepo.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state == nil {
		return []model.ChatMessage{}, nil
	}
	return state.Messages, nil
}

// Clear 见接口说明。
func (s *chatService) Clear(ctx context.Context, threadID string) error {
	return s.conversationRepo.Delete(ctx, threadID)
}

// lockThread 返回指定线程的互斥锁，首次访问时创建。
func (s *chatService) lockThread(threadID string) *sync.Mutex {
	actual, _ := s.threadLocks.LoadOrStore(threadID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// composeMessages 把渲染后的 system prompt 和裁剪窗口拼成模型入参。
func composeMessages(systemPrompt string, window []model.ChatMessage) []llm.Message {
	msgs := make([]llm.Message, 0, len(window)+1)
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: systemPrompt})
	for _, m := range window {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// archiveExchange 把本轮问答写入 MySQL 归档。
// 归档是旁路数据，写入失败只记日志，不影响请求结果。
func (s *chatService) archiveExchange(threadID, question, answer string, state *model.ConversationState) {
	if s.exchangeRepo == nil {
		return
	}
	exchange := &model.Exchange{
		ThreadID:  threadID,
		Question:  question,
		Answer:    answer,
		Country:   state.Country,
		QueryType: string(state.QueryType),
	}
	if err := s.exchangeRepo.Create(exchange); err != nil {
		log.Errorf("Failed to archive exchange for thread %s: %v", threadID, err)
	}
}
