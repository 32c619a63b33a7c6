package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

type ProposalHandler struct {
	service  *service.ProposalService
	sessions *chat.Manager
}

func NewProposalHandler(service *service.ProposalService, sessions *chat.Manager) *ProposalHandler {
	return &ProposalHandler{
		service:  service,
		sessions: sessions,
	}
}

func (h *ProposalHandler) Create(c *gin.Context) {
	var req service.CreateProposalRequest
	// 空 body 视为创建空白提案
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "sessionId": p.SessionID})
}

func (h *ProposalHandler) List(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	proposals, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Get 会话已加载时返回内存中的最新状态，否则读存储
func (h *ProposalHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if s, ok := h.sessions.Lookup(id); ok {
		c.JSON(http.StatusOK, s.Snapshot())
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update 部分更新；会话已加载时重新同步，避免自动保存用旧状态覆盖
func (h *ProposalHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var patch domain.ProposalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 对话进行中的会话先丢弃，这一轮结束时不会再用旧快照覆盖本次更新
	if s, ok := h.sessions.Lookup(id); ok && s.Busy() {
		h.sessions.Drop(id)
	}

	p, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := h.sessions.Lookup(id); ok {
		if _, _, err := h.sessions.Reload(c.Request.Context(), id); err != nil {
			if errors.Is(err, chat.ErrTurnInFlight) {
				// 对话进行中，丢弃会话，下次访问重新加载
				h.sessions.Drop(id)
			} else {
				klog.Warningf("更新后重新加载会话失败: id=%s, error=%v", id, err)
			}
		}
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProposalHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.sessions.Drop(id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Revise 基于已有提案创建新版本
func (h *ProposalHandler) Revise(c *gin.Context) {
	p, err := h.service.Revise(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "sessionId": p.SessionID, "version": p.Version})
}

func (h *ProposalHandler) ListRevisions(c *gin.Context) {
	revisions, err := h.service.ListRevisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": revisions})
}
