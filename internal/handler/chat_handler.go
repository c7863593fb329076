package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"prepsmart-go/internal/repository"
	"prepsmart-go/internal/service"
	"prepsmart-go/pkg/log"
	"prepsmart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 WebSocket 对话连接。
// 连接建立前先经 HTTP 换取短期票据，票据里带学科与会话标识。
type ChatHandler struct {
	chatService   service.ChatService
	searchService service.SearchService
	ticketManager *token.TicketManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, searchService service.SearchService, ticketManager *token.TicketManager) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		searchService: searchService,
		ticketManager: ticketManager,
	}
}

// IssueTicket 签发一张 WebSocket 流式票据。
func (h *ChatHandler) IssueTicket(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId"`
	}
	_ = c.ShouldBindJSON(&req)

	subject, err := h.searchService.ResolveSubject(req.SubjectID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubjectRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "subjectId is required"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
		default:
			log.Errorf("[ChatHandler] 解析学科失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch subject"})
		}
		return
	}

	ticket, sessionID, err := h.ticketManager.Issue(subject.ID)
	if err != nil {
		log.Errorf("[ChatHandler] 签发票据失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue ticket"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket, "sessionId": sessionID})
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *ChatHandler) Handle(c *gin.Context) {
	claims, err := h.ticketManager.Verify(c.Param("ticket"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ticket"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立, subject: %s, session: %s", claims.SubjectID, claims.SessionID)

	// 每连接停止标志，stop 指令只影响当前正在生成的回答
	var stopped atomic.Bool

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		// JSON 控制指令: {"type":"stop"}
		var ctrl struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if json.Unmarshal(message, &ctrl) == nil && ctrl.Type == "stop" {
			stopped.Store(true)
			continue
		}

		query := ctrl.Content
		if query == "" {
			query = strings.TrimSpace(string(message))
		}
		if query == "" {
			continue
		}

		stopped.Store(false)
		err = h.chatService.StreamResponse(c.Request.Context(), claims.SubjectID, claims.SessionID, query, conn, stopped.Load)
		if err != nil {
			log.Errorf("[ChatHandler] 流式响应失败: %v", err)
			payload, _ := json.Marshal(gin.H{"type": "error", "error": "generation failed"})
			if writeErr := conn.WriteMessage(websocket.TextMessage, payload); writeErr != nil {
				break
			}
		}
	}
}
