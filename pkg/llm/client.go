// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"prepsmart-go/internal/config"
)

// ErrGenerationFailed 表示生成服务调用失败（网络错误、非 2xx 或无响应体）。
// 在任何增量下发之前出现，调用方直接向上层报错，不自动重试。
var ErrGenerationFailed = errors.New("generation provider failed")

// ErrMalformedOutput 表示本应原子返回的响应无法解析。
// 与网络失败区分开：它说明模型没有遵守要求的输出结构。
var ErrMalformedOutput = errors.New("malformed provider output")

// MessageWriter defines an interface for writing streamed messages.
// This allows a websocket.Conn, an HTTP chunked writer, or a test
// interceptor to consume the same stream.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams 控制生成行为，零值字段不下发。
type GenerationParams struct {
	Temperature   float64
	TopP          float64
	NumPredict    int
	RepeatPenalty float64
}

// Client defines the interface for an LLM client.
type Client interface {
	// StreamGenerate 以单条 prompt 调用生成接口，把文本增量逐条写入 writer。
	StreamGenerate(ctx context.Context, prompt string, gen *GenerationParams, writer MessageWriter) error
	// StreamChat 以 role-based 消息调用聊天接口，把文本增量逐条写入 writer。
	StreamChat(ctx context.Context, messages []Message, gen *GenerationParams, writer MessageWriter) error
	// Generate 非流式生成，一次性返回完整文本。
	Generate(ctx context.Context, prompt string, gen *GenerationParams) (string, error)
	// GenerateJSON 要求模型输出 JSON，并校验其可解析。
	GenerateJSON(ctx context.Context, prompt string, gen *GenerationParams) (json.RawMessage, error)
}

type ollamaClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client backed by an Ollama server.
func NewClient(cfg config.LLMConfig) Client {
	return &ollamaClient{
		cfg: cfg,
		// 生成耗时远超普通请求，靠 ctx 控制取消，不设整体超时
		client: &http.Client{},
	}
}

// options 是 Ollama 的解码参数块。
type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *options  `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// buildOptions 合并调用点参数与配置默认值，调用点优先。
func (c *ollamaClient) buildOptions(gen *GenerationParams) *options {
	merged := GenerationParams{
		Temperature:   c.cfg.Generation.Temperature,
		TopP:          c.cfg.Generation.TopP,
		NumPredict:    c.cfg.Generation.NumPredict,
		RepeatPenalty: c.cfg.Generation.RepeatPenalty,
	}
	if gen != nil {
		if gen.Temperature != 0 {
			merged.Temperature = gen.Temperature
		}
		if gen.TopP != 0 {
			merged.TopP = gen.TopP
		}
		if gen.NumPredict != 0 {
			merged.NumPredict = gen.NumPredict
		}
		if gen.RepeatPenalty != 0 {
			merged.RepeatPenalty = gen.RepeatPenalty
		}
	}
	if merged == (GenerationParams{}) {
		return nil
	}
	return &options{
		Temperature:   merged.Temperature,
		TopP:          merged.TopP,
		NumPredict:    merged.NumPredict,
		RepeatPenalty: merged.RepeatPenalty,
	}
}

// StreamGenerate 调用 /api/generate 并流式下发 response 增量。
func (c *ollamaClient) StreamGenerate(ctx context.Context, prompt string, gen *GenerationParams, writer MessageWriter) error {
	reqBody := generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Stream:  true,
		Options: c.buildOptions(gen),
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal generate request: %w", err)
	}
	return c.streamNDJSON(ctx, c.cfg.BaseURL+"/api/generate", reqBytes, extractGenerateDelta, writer)
}

// StreamChat 调用 /api/chat 并流式下发 message.content 增量。
func (c *ollamaClient) StreamChat(ctx context.Context, messages []Message, gen *GenerationParams, writer MessageWriter) error {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
		Options:  c.buildOptions(gen),
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal chat request: %w", err)
	}
	return c.streamNDJSON(ctx, c.cfg.BaseURL+"/api/chat", reqBytes, extractChatDelta, writer)
}

// streamNDJSON 发起流式请求，逐块读取响应体，经 streamDecoder 重组后立即转发。
// 每个解析出的增量都即时写给下游，绝不攒完整响应再下发。
func (c *ollamaClient) streamNDJSON(ctx context.Context, url string, body []byte, extract extractFunc, writer MessageWriter) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %s, body: %s", ErrGenerationFailed, resp.Status, string(bodyBytes))
	}

	dec := newStreamDecoder(extract)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, delta := range dec.feed(buf[:n]) {
				if delta == "" {
					continue
				}
				if werr := writer.WriteMessage(websocket.TextMessage, []byte(delta)); werr != nil {
					return fmt.Errorf("failed to write stream delta: %w", werr)
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read from stream: %w", readErr)
		}
	}

	if delta, ok := dec.flush(); ok && delta != "" {
		if werr := writer.WriteMessage(websocket.TextMessage, []byte(delta)); werr != nil {
			return fmt.Errorf("failed to write stream delta: %w", werr)
		}
	}
	return nil
}

// Generate 调用 /api/generate（非流式）并返回完整文本。
func (c *ollamaClient) Generate(ctx context.Context, prompt string, gen *GenerationParams) (string, error) {
	data, err := c.generateOnce(ctx, prompt, "", gen)
	if err != nil {
		return "", err
	}
	return data, nil
}

// GenerateJSON 以 format=json 调用生成接口，并校验模型输出确实是合法 JSON。
func (c *ollamaClient) GenerateJSON(ctx context.Context, prompt string, gen *GenerationParams) (json.RawMessage, error) {
	data, err := c.generateOnce(ctx, prompt, "json", gen)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(data)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: model returned invalid json", ErrMalformedOutput)
	}
	return raw, nil
}

func (c *ollamaClient) generateOnce(ctx context.Context, prompt, format string, gen *GenerationParams) (string, error) {
	reqBody := generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Stream:  false,
		Format:  format,
		Options: c.buildOptions(gen),
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %s, body: %s", ErrGenerationFailed, resp.Status, string(bodyBytes))
	}

	// 非流式路径期望一个原子 JSON 对象，解析失败没有容错余地
	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return genResp.Response, nil
}

var _ Client = (*ollamaClient)(nil)
