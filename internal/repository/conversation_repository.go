package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"prepsmart-go/internal/model"
)

// 历史过长会撑爆模型上下文，只保留最近若干条。
const maxHistoryMessages = 20

// ConversationRepository 定义了对话历史记录的操作接口。
// 历史按 (学科, 会话) 维度存储在 Redis 中。
type ConversationRepository interface {
	GetHistory(ctx context.Context, subjectID, sessionID string) ([]model.ChatMessage, error)
	AppendExchange(ctx context.Context, subjectID, sessionID, question, answer string) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func historyKey(subjectID, sessionID string) string {
	return fmt.Sprintf("chat:%s:%s", subjectID, sessionID)
}

// GetHistory 从 Redis 获取一个会话的对话历史记录。
func (r *redisConversationRepository) GetHistory(ctx context.Context, subjectID, sessionID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, historyKey(subjectID, sessionID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil // 尚无历史
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendExchange 将一问一答追加到会话历史，超长时裁剪最旧的消息。
func (r *redisConversationRepository) AppendExchange(ctx context.Context, subjectID, sessionID, question, answer string) error {
	history, err := r.GetHistory(ctx, subjectID, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	history = append(history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, historyKey(subjectID, sessionID), data, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save conversation history: %w", err)
	}
	return nil
}
