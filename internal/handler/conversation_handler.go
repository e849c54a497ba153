// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"ivabot-go/internal/service"
	"ivabot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与会话历史相关的 API 请求。
type ConversationHandler struct {
	assistant service.AssistantService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(assistant service.AssistantService) *ConversationHandler {
	return &ConversationHandler{assistant: assistant}
}

// GetConversation 处理 GET /api/v1/sessions/:session_id/history。
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	sessionID := c.Param("session_id")
	history, err := h.assistant.History(c.Request.Context(), sessionID)
	if err != nil {
		log.Errorw("Failed to retrieve session history", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to retrieve conversation history",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    history,
	})
}
