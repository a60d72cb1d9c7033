// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色常量，与 OpenAI 风格接口保持一致。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// QueryType 是粗粒度的路由标签：识别到国家实体则为 country，否则为 general。
type QueryType string

const (
	QueryTypeGeneral QueryType = "general"
	QueryTypeCountry QueryType = "country"
)

// ChatMessage 代表一条对话消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "system"、"user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState 是一个会话线程的检查点：完整消息历史加上最近一次
// 分类得到的国家与查询类型。由 ConversationRepository 独占持有，
// ChatService 在单次请求内只操作它的内存副本。
type ConversationState struct {
	Messages  []ChatMessage `json:"messages"`
	Country   string        `json:"country,omitempty"`
	QueryType QueryType     `json:"queryType,omitempty"`
}
