package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/sse"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// ChatHandler 无状态的对话代理：请求里带齐上下文，直接把模型输出转成 SSE
type ChatHandler struct {
	collaborator chat.Collaborator
}

func NewChatHandler(collaborator chat.Collaborator) *ChatHandler {
	return &ChatHandler{collaborator: collaborator}
}

func (h *ChatHandler) Stream(c *gin.Context) {
	var req chat.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if h.collaborator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai collaborator is not configured"})
		return
	}

	reader, err := h.collaborator.Stream(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	w := sse.NewWriter(c.Writer)
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			klog.Errorf("对话流中断: section=%s, error=%v", req.SectionKey, err)
			_ = w.Error(err.Error())
			break
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		if err := w.Text(msg.Content); err != nil {
			// 客户端已断开
			klog.V(6).Infof("对话流写入失败: %v", err)
			return
		}
	}
	_ = w.Done()
}
