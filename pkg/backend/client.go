// Package backend provides the client the proxy gateway uses to reach the upstream chat backend.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// UpstreamError 表示上游返回了非 2xx 响应。
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, string(e.Body))
}

// Client 定义了转发聊天请求的接口。
type Client interface {
	// Forward 将 body 原样 POST 到上游，成功时返回上游响应体。
	Forward(ctx context.Context, body []byte) ([]byte, error)
}

type httpClient struct {
	url    string
	client *http.Client
}

// NewClient 创建一个转发到固定上游地址的客户端。不设置超时，也不重试。
func NewClient(url string, client *http.Client) Client {
	if client == nil {
		client = &http.Client{}
	}
	return &httpClient{url: url, client: client}
}

func (c *httpClient) Forward(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call upstream: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}
