package chatui

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"ivabot-go/internal/model"
	"ivabot-go/internal/weather"
)

// Version 显示在页面标题栏。
const Version = "v1.0.4"

//go:embed templates/*.html
var templateFS embed.FS

// Renderer 把页面状态渲染为 HTML。
type Renderer struct {
	templates *template.Template
}

// NewRenderer 解析内嵌的页面模板。
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

type weatherView struct {
	Location    string
	Temperature string
	Status      string
	Humidity    string
	Wind        string
	Icon        weather.Icon
}

type messageView struct {
	IsUser    bool
	IsWeather bool
	Content   string
	Weather   weatherView
}

type transcriptView struct {
	Messages []messageView
	Loading  bool
}

type pageView struct {
	Version    string
	SocketPath string
	State      transcriptView
}

// 天气字段在每次渲染时从消息重新计算，不做缓存。
func newTranscriptView(s State) transcriptView {
	v := transcriptView{Loading: s.Loading, Messages: make([]messageView, 0, len(s.Messages))}
	for _, m := range s.Messages {
		mv := messageView{
			IsUser:    m.Role == model.RoleUser,
			IsWeather: m.IsWeather(),
			Content:   m.Content,
		}
		if mv.IsWeather {
			f := weather.ForMessage(m)
			mv.Weather = weatherView{
				Location:    f.Location,
				Temperature: f.RoundedTemperature(),
				Status:      f.Status,
				Humidity:    f.Humidity,
				Wind:        f.Wind,
				Icon:        f.Icon(),
			}
		}
		v.Messages = append(v.Messages, mv)
	}
	return v
}

// Page 渲染完整页面，socketPath 是页面连接的 WebSocket 路径。
func (r *Renderer) Page(w io.Writer, s State, socketPath string) error {
	return r.templates.ExecuteTemplate(w, "page", pageView{
		Version:    Version,
		SocketPath: socketPath,
		State:      newTranscriptView(s),
	})
}

// Transcript 只渲染消息列表部分，用于推送更新。
func (r *Renderer) Transcript(s State) (string, error) {
	var sb strings.Builder
	if err := r.templates.ExecuteTemplate(&sb, "transcript", newTranscriptView(s)); err != nil {
		return "", err
	}
	return sb.String(), nil
}
