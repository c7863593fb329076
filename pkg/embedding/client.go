// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"prepsmart-go/internal/config"
	"prepsmart-go/pkg/log"
)

// ErrUnavailable 表示 Embedding 服务不可用（网络错误或非 2xx 响应）。
// 摄取侧按分块跳过，查询侧据此切换到非语义兜底检索。
var ErrUnavailable = errors.New("embedding service unavailable")

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type ollamaClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient creates a new embedding client backed by an Ollama server.
func NewClient(cfg config.EmbeddingConfig) Client {
	return &ollamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// CreateEmbedding 调用 Ollama /api/embeddings 获取文本向量。
// 5xx 按指数退避重试少量次数，仍失败则返回 ErrUnavailable。
func (c *ollamaClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Debugf("[EmbeddingClient] 调用 Embedding API, model: %s, input_len: %d", c.cfg.Model, len(text))

	reqBody := embeddingRequest{
		Model:  c.cfg.Model,
		Prompt: text,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	var vector []float32
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/embeddings", bytes.NewReader(reqBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create embedding request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call embedding api: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("embedding api returned status: %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("embedding api returned status: %s", resp.Status))
		}

		var embResp embeddingResponse
		if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode embedding response: %w", err))
		}
		if len(embResp.Embedding) == 0 {
			return backoff.Permanent(errors.New("received empty embedding from api"))
		}
		vector = embResp.Embedding
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Debugf("[EmbeddingClient] 成功获取向量, 维度: %d", len(vector))
	return vector, nil
}
