package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"ivabot-go/internal/chatui"
	"ivabot-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// SocketPath 是页面建立 WebSocket 连接的路径。
const SocketPath = "/ws"

// clientEvent 是页面发来的操作：input / keydown / send。
type clientEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Key  string `json:"key"`
}

// transcriptEvent 是推送给页面的重新渲染结果。
type transcriptEvent struct {
	Type    string `json:"type"`
	HTML    string `json:"html"`
	Loading bool   `json:"loading"`
	Input   string `json:"input"`
}

// PageHandler 提供聊天页面和每个页面对应的状态连接。
type PageHandler struct {
	renderer  *chatui.Renderer
	gateway   chatui.Gateway
	sessionID string
}

// NewPageHandler 创建一个新的 PageHandler。
func NewPageHandler(renderer *chatui.Renderer, gateway chatui.Gateway, sessionID string) *PageHandler {
	return &PageHandler{
		renderer:  renderer,
		gateway:   gateway,
		sessionID: sessionID,
	}
}

// Home 渲染空对话的页面。
func (h *PageHandler) Home(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Page(c.Writer, chatui.State{}, SocketPath); err != nil {
		log.Error("渲染页面失败", err)
		c.String(http.StatusInternalServerError, err.Error())
	}
}

// Socket 处理页面的 WebSocket 连接。每个连接拥有独立的 Store，连接关闭即丢弃对话。
func (h *PageHandler) Socket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	pageID := uuid.New().String()
	log.Infof("页面连接已建立: %s", pageID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := chatui.NewStore(h.gateway, h.sessionID)
	var writeMu sync.Mutex
	lastCount, lastLoading := 0, false
	store.Subscribe(func(s chatui.State) {
		// 仅输入框变化时不重新渲染
		if len(s.Messages) == lastCount && s.Loading == lastLoading {
			return
		}
		lastCount, lastLoading = len(s.Messages), s.Loading

		html, err := h.renderer.Transcript(s)
		if err != nil {
			log.Errorf("渲染对话失败, page: %s, error: %v", pageID, err)
			return
		}
		b, _ := json.Marshal(transcriptEvent{Type: "transcript", HTML: html, Loading: s.Loading, Input: s.Input})

		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("推送对话失败, page: %s, error: %v", pageID, err)
		}
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Infof("页面连接已关闭: %s (%v)", pageID, err)
			break
		}

		var ev clientEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Warnf("无法解析页面消息, page: %s, error: %v", pageID, err)
			continue
		}

		switch ev.Type {
		case "input":
			store.SetInput(ev.Text)
		case "keydown":
			store.KeyDown(ctx, ev.Key)
		case "send":
			store.Send(ctx)
		default:
			log.Warnf("未知的页面消息类型: %s", ev.Type)
		}
	}
}
