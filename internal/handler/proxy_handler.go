package handler

import (
	"errors"
	"net/http"

	"ivabot-go/internal/model"
	"ivabot-go/pkg/backend"
	"ivabot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ProxyErrorMessage 是网关转发失败时返回给页面的固定错误信息。
const ProxyErrorMessage = "Failed to fetch from backend"

// ProxyHandler 把页面的聊天请求转发到上游后端。无状态，每个请求相互独立。
type ProxyHandler struct {
	upstream backend.Client
}

// NewProxyHandler 创建一个新的 ProxyHandler。
func NewProxyHandler(upstream backend.Client) *ProxyHandler {
	return &ProxyHandler{upstream: upstream}
}

// Chat 处理 POST /api/chat。请求体不做校验，原样转发。
func (h *ProxyHandler) Chat(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Errorw("Proxy Error", "detail", err.Error())
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: ProxyErrorMessage})
		return
	}

	respBody, err := h.upstream.Forward(c.Request.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		detail := err.Error()
		var upErr *backend.UpstreamError
		if errors.As(err, &upErr) {
			status = upErr.StatusCode
			if len(upErr.Body) > 0 {
				detail = string(upErr.Body)
			}
		}
		log.Errorw("Proxy Error", "status", status, "detail", detail)
		c.JSON(status, model.ErrorResponse{Error: ProxyErrorMessage})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", respBody)
}
