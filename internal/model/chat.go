// Package model 包含了应用的数据模型定义。
package model

// Role 是聊天消息的发送方。
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ToolWeather 是上游天气工具的标记。
const ToolWeather = "weather"

// Message 是页面对话记录中的一条消息，追加后不再修改。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Tool    string `json:"tool,omitempty"`
	// Weather 仅在上游返回结构化天气数据时存在。
	Weather *WeatherReport `json:"weather,omitempty"`
}

// IsWeather 判断消息是否应按天气卡片渲染。
func (m Message) IsWeather() bool {
	return m.Role == RoleBot && m.Tool == ToolWeather
}

// ProxyRequest 是页面发往 /api/chat 的请求体。
type ProxyRequest struct {
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
}

// ProxyResponse 是上游后端返回、经网关原样转发的响应体。
type ProxyResponse struct {
	Response string         `json:"response"`
	Tool     string         `json:"tool,omitempty"`
	Weather  *WeatherReport `json:"weather,omitempty"`
}

// ErrorResponse 是网关失败时返回的响应体。
type ErrorResponse struct {
	Error string `json:"error"`
}

// WeatherReport 是天气工具的结构化结果。
type WeatherReport struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Status      string  `json:"status"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}
