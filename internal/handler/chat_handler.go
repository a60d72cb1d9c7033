// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strings"
	"time"

	"travel-advisor-go/internal/middleware"
	"travel-advisor-go/internal/repository"
	"travel-advisor-go/internal/service"
	"travel-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 处理对话相关的 REST 请求。
type ChatHandler struct {
	chatService  service.ChatService
	exchangeRepo repository.ExchangeRepository
}

// NewChatHandler 创建一个新的 ChatHandler。
// exchangeRepo 可以为 nil，此时归档查询接口返回空列表。
func NewChatHandler(chatService service.ChatService, exchangeRepo repository.ExchangeRepository) *ChatHandler {
	return &ChatHandler{chatService: chatService, exchangeRepo: exchangeRepo}
}

// chatRequest 是 POST /api/chat 的请求体。
type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId"`
}

// Chat 处理一轮对话请求。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestId": middleware.GetRequestID(c),
		})
		return
	}
	// 空消息在进入工作流之前拦截
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Message is required",
			"requestId": middleware.GetRequestID(c),
		})
		return
	}

	reply, threadID, err := h.chatService.Respond(c.Request.Context(), req.Message, req.ThreadID)
	if err != nil {
		log.Errorf("Failed to process chat request: %v", err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":  reply,
		"threadId":  threadID,
		"timestamp": time.Now().Format(time.RFC3339),
		"requestId": middleware.GetRequestID(c),
	})
}

// GetHistory 返回指定线程的完整消息历史。
func (h *ChatHandler) GetHistory(c *gin.Context) {
	threadID := c.Param("threadId")

	history, err := h.chatService.History(c.Request.Context(), threadID)
	if err != nil {
		log.Errorf("Failed to get history for thread %s: %v", threadID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history":   history,
		"requestId": middleware.GetRequestID(c),
	})
}

// ClearHistory 清空指定线程的会话状态。未知线程同样返回成功。
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	threadID := c.Param("threadId")

	if err := h.chatService.Clear(c.Request.Context(), threadID); err != nil {
		log.Errorf("Failed to clear history for thread %s: %v", threadID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Conversation history cleared",
		"requestId": middleware.GetRequestID(c),
	})
}

// GetExchanges 返回指定线程的问答归档记录。
func (h *ChatHandler) GetExchanges(c *gin.Context) {
	threadID := c.Param("threadId")

	if h.exchangeRepo == nil {
		c.JSON(http.StatusOK, gin.H{
			"exchanges": []any{},
			"requestId": middleware.GetRequestID(c),
		})
		return
	}

	exchanges, err := h.exchangeRepo.FindByThreadID(threadID)
	if err != nil {
		log.Errorf("Failed to list exchanges for thread %s: %v", threadID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exchanges": exchanges,
		"requestId": middleware.GetRequestID(c),
	})
}

// Health 是健康检查接口。
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Travel Advisory Assistant API is running",
		"timestamp": time.Now().Format(time.RFC3339),
		"requestId": middleware.GetRequestID(c),
	})
}

// NotFound 是统一的 404 响应。
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":     "Route not found",
		"requestId": middleware.GetRequestID(c),
	})
}

// internalError 输出统一的 500 响应，细节只进日志不外泄。
func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestId": middleware.GetRequestID(c),
	})
}
