// Package tika 提供了一个与 Apache Tika 服务器交互的客户端。
// DOCX 文本提取与图片 OCR 都委托给 Tika 完成。
package tika

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"prepsmart-go/internal/config"
)

// Client 是 Tika 服务器的客户端。
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient 创建一个新的 Tika 客户端实例。
func NewClient(cfg config.TikaConfig) *Client {
	return &Client{
		serverURL:  cfg.ServerURL,
		httpClient: http.DefaultClient,
	}
}

// ExtractText 将字节流交给 Tika 并取回纯文本。
// contentType 由上层的格式分发逻辑确定，这里不再猜测。
func (c *Client) ExtractText(fileReader io.Reader, contentType string) (string, error) {
	req, err := http.NewRequest(http.MethodPut, c.serverURL+"/tika", fileReader)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用 Tika 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Tika 返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return "", fmt.Errorf("读取 Tika 响应失败: %w", err)
	}

	return buf.String(), nil
}
