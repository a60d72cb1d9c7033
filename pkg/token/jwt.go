// Package token 提供了 WebSocket 流式接口所用的短时效 JWT 票据。
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TicketManager 负责签发和验证流式连接票据。
type TicketManager struct {
	secretKey []byte        // 用于签名和验证票据的密钥
	ticketDur time.Duration // 票据有效期，应当很短
}

// TicketClaims 是流式票据携带的声明：可选的线程 ID 加上标准 JWT 声明。
type TicketClaims struct {
	ThreadID string `json:"threadId,omitempty"`
	jwt.RegisteredClaims
}

// NewTicketManager 创建一个新的 TicketManager 实例。
func NewTicketManager(secret string, expire time.Duration) *TicketManager {
	return &TicketManager{
		secretKey: []byte(secret),
		ticketDur: expire,
	}
}

// IssueTicket 为一次 WebSocket 连接签发票据。threadID 可以为空，
// 表示连接后由首条消息创建新线程。
func (m *TicketManager) IssueTicket(threadID string) (string, error) {
	now := time.Now()
	claims := TicketClaims{
		ThreadID: threadID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        GenerateRandomString(8),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ticketDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	ticket := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return ticket.SignedString(m.secretKey)
}

// VerifyTicket 验证票据字符串，有效时返回其声明。
func (m *TicketManager) VerifyTicket(ticketString string) (*TicketClaims, error) {
	parsed, err := jwt.ParseWithClaims(ticketString, &TicketClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid ticket: %w", err)
	}
	claims, ok := parsed.Claims.(*TicketClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid ticket claims")
	}
	return claims, nil
}

// GenerateRandomString 生成指定字节长度的随机十六进制字符串。
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
