// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"prepsmart-go/internal/config"
	"prepsmart-go/internal/model"
	"prepsmart-go/internal/prompt"
	"prepsmart-go/internal/repository"
	"prepsmart-go/pkg/llm"
	"prepsmart-go/pkg/log"

	"github.com/gorilla/websocket"
)

// ChatService 定义了对话操作的接口。
type ChatService interface {
	// StreamResponse 协调一轮 RAG 对话：检索上下文、组装消息、
	// 流式下发增量并在完成后保存历史。
	StreamResponse(ctx context.Context, subjectID, sessionID, query string, ws *websocket.Conn, shouldStop func() bool) error
}

type chatService struct {
	searchService    SearchService
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository
	retrieval        config.RetrievalConfig
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(searchService SearchService, llmClient llm.Client, conversationRepo repository.ConversationRepository, retrieval config.RetrievalConfig) ChatService {
	return &chatService{
		searchService:    searchService,
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
		retrieval:        retrieval,
	}
}

func (s *chatService) StreamResponse(ctx context.Context, subjectID, sessionID, query string, ws *websocket.Conn, shouldStop func() bool) error {
	// 1. 检索上下文。对话检索阈值比生成类任务更宽松。
	chunks, err := s.searchService.Retrieve(ctx, subjectID, query, s.retrieval.ChatThreshold, s.retrieval.ChatTopK)
	if err != nil {
		// 检索整体失败视同无上下文，对话仍可用通识知识作答
		log.Warnf("[ChatService] 上下文检索失败, subject: %s: %v", subjectID, err)
		chunks = nil
	}
	contextText := prompt.BuildContext(Contents(chunks), s.retrieval.MaxContextChars)
	systemMsg := prompt.Chat(contextText)

	// 2. 载入历史并组装消息
	history, err := s.conversationRepo.GetHistory(ctx, subjectID, sessionID)
	if err != nil {
		log.Errorf("[ChatService] 载入会话历史失败: %v", err)
		history = nil
	}
	messages := composeMessages(systemMsg, history, query)

	// 拦截 websocket writer 以捕获完整答案，并包装为 JSON 分块
	answerBuilder := &strings.Builder{}
	interceptor := &wsWriterInterceptor{conn: ws, writer: answerBuilder, shouldStop: shouldStop}

	// 3. 流式生成
	gen := &llm.GenerationParams{Temperature: 0.3, NumPredict: 2000, RepeatPenalty: 1.15}
	if err := s.llmClient.StreamChat(ctx, messages, gen, interceptor); err != nil {
		return err
	}

	// 4. 发送完成通知，并把本轮问答保存到 Redis
	sendCompletion(ws)
	fullAnswer := answerBuilder.String()
	if len(fullAnswer) > 0 {
		// 使用后台上下文：即使原始请求被取消，已生成的答案也要保存
		if err := s.conversationRepo.AppendExchange(context.Background(), subjectID, sessionID, query, fullAnswer); err != nil {
			// 只记录错误，流式响应本身已经成功
			log.Errorf("[ChatService] 保存会话历史失败: %v", err)
		}
	}
	return nil
}

func composeMessages(systemMsg string, history []model.ChatMessage, userInput string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: systemMsg})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: userInput})
	return msgs
}

// wsWriterInterceptor 是对 websocket.Conn 的封装，用于捕获写入的消息。
type wsWriterInterceptor struct {
	conn       *websocket.Conn
	writer     *strings.Builder
	shouldStop func() bool
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsWriterInterceptor) WriteMessage(messageType int, data []byte) error {
	if w.shouldStop != nil && w.shouldStop() {
		// 停止标志生效：跳过下发
		return nil
	}
	w.writer.Write(data)
	// 将原始增量包装成 {"chunk":"..."}
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(ws *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(notif)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}
