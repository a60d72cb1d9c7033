package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"travel-advisor-go/internal/middleware"
	"travel-advisor-go/internal/service"
	"travel-advisor-go/pkg/log"
	"travel-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// StreamHandler 负责处理 WebSocket 流式聊天连接。
type StreamHandler struct {
	chatService   service.ChatService
	ticketManager *token.TicketManager
}

// NewStreamHandler 创建一个新的 StreamHandler。
func NewStreamHandler(chatService service.ChatService, ticketManager *token.TicketManager) *StreamHandler {
	return &StreamHandler{chatService: chatService, ticketManager: ticketManager}
}

// GetStreamTicket 签发一个短时效的 WebSocket 连接票据。
// 可选的 threadId 查询参数会绑定进票据，用于续接已有线程。
func (h *StreamHandler) GetStreamTicket(c *gin.Context) {
	ticket, err := h.ticketManager.IssueTicket(c.Query("threadId"))
	if err != nil {
		log.Errorf("Failed to issue stream ticket: %v", err)
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticket":    ticket,
		"requestId": middleware.GetRequestID(c),
	})
}

// Handle 处理一个传入的 WebSocket 连接。
// 连接内的每条文本消息作为一轮用户输入，模型回复以 {"chunk": ...}
// 帧流式下发，最后发送 completion 帧。
func (h *StreamHandler) Handle(c *gin.Context) {
	claims, err := h.ticketManager.VerifyTicket(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid or expired ticket",
			"requestId": middleware.GetRequestID(c),
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	threadID := claims.ThreadID
	log.Infof("WebSocket 连接已建立, thread=%s", threadID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}
		if strings.TrimSpace(string(message)) == "" {
			sendStreamError(conn, "Message is required")
			continue
		}

		interceptor := &chunkWriter{conn: conn}
		_, respondedThread, err := h.chatService.RespondStream(c.Request.Context(), string(message), threadID, interceptor)
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			sendStreamError(conn, "The assistant is temporarily unavailable, please try again later")
			sendCompletion(conn, threadID)
			break
		}
		// 空 threadID 首轮后沿用新生成的线程
		threadID = respondedThread
		sendCompletion(conn, threadID)
	}
}

// chunkWriter 把模型输出的原始分块包装成 {"chunk":"..."} 帧再下发。
type chunkWriter struct {
	conn *websocket.Conn
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *chunkWriter) WriteMessage(messageType int, data []byte) error {
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知帧。
func sendCompletion(conn *websocket.Conn, threadID string) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"threadId":  threadID,
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(notif)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// sendStreamError 发送统一的错误帧。
func sendStreamError(conn *websocket.Conn, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
