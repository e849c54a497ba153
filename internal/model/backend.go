package model

import "time"

// BackendChatRequest 是参考后端 /api/v1/chat 的请求体。
type BackendChatRequest struct {
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
}

// BackendChatResponse 是参考后端的响应体，Tool 默认为 "none"。
type BackendChatResponse struct {
	Response string         `json:"response"`
	Source   string         `json:"source"`
	Tool     string         `json:"tool"`
	Weather  *WeatherReport `json:"weather,omitempty"`
}

// ChatMessage 代表存储在 Redis 中的单条对话消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
