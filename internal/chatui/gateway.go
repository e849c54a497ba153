package chatui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ivabot-go/internal/model"
)

// GatewayClient 通过 HTTP 调用代理网关的 /api/chat。
type GatewayClient struct {
	url    string
	client *http.Client
}

// NewGatewayClient 创建一个指向 url 的网关客户端。不设置超时。
func NewGatewayClient(url string, client *http.Client) *GatewayClient {
	if client == nil {
		client = &http.Client{}
	}
	return &GatewayClient{url: url, client: client}
}

// Chat 发送一次聊天请求。非 2xx 响应和无法解析的响应体都视为失败。
func (g *GatewayClient) Chat(ctx context.Context, in model.ProxyRequest) (model.ProxyResponse, error) {
	reqBytes, err := json.Marshal(in)
	if err != nil {
		return model.ProxyResponse{}, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(reqBytes))
	if err != nil {
		return model.ProxyResponse{}, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return model.ProxyResponse{}, fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return model.ProxyResponse{}, fmt.Errorf("gateway returned status %s, body: %s", resp.Status, string(body))
	}

	var out model.ProxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.ProxyResponse{}, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return out, nil
}
