package handler

import (
	"net/http"

	"ivabot-go/internal/model"
	"ivabot-go/internal/service"
	"ivabot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// BackendHandler 实现参考聊天后端的 HTTP 接口。
type BackendHandler struct {
	assistant service.AssistantService
}

// NewBackendHandler 创建一个新的 BackendHandler。
func NewBackendHandler(assistant service.AssistantService) *BackendHandler {
	return &BackendHandler{assistant: assistant}
}

type backendChatRequest struct {
	UserInput *string `json:"user_input"`
	SessionID string  `json:"session_id"`
}

// Root 处理 GET /，用于健康检查。
func (h *BackendHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Chatbot API is online"})
}

// Chat 处理 POST /api/v1/chat。
func (h *BackendHandler) Chat(c *gin.Context) {
	var req backendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if req.UserInput == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "user_input is required"})
		return
	}

	resp, err := h.assistant.Reply(c.Request.Context(), model.BackendChatRequest{
		UserInput: *req.UserInput,
		SessionID: req.SessionID,
	})
	if err != nil {
		log.Error("Chat request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
