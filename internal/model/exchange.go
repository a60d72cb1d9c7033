package model

import "time"

// Exchange 代表一次完整的问答交互，落库到 MySQL 作为会话归档。
// Redis 中的 ConversationState 才是工作流读写的权威数据，
// Exchange 仅用于留存与查询，写入失败不影响请求。
type Exchange struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  string    `gorm:"index;size:64;not null" json:"threadId"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Country   string    `gorm:"size:64" json:"country,omitempty"`
	QueryType string    `gorm:"size:16" json:"queryType"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Exchange) TableName() string {
	return "exchanges"
}
