package handler

import (
	"errors"
	"net/http"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrTurnInFlight):
		return http.StatusConflict
	case domain.IsAICollaborator(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		klog.Errorf("请求处理失败: %s %s, error=%v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
