package handler

import (
	"net/http"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/gin-gonic/gin"
)

// SessionHandler 对话会话接口，按提案 ID 路由到会话
type SessionHandler struct {
	sessions *chat.Manager
}

func NewSessionHandler(sessions *chat.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type sectionRequest struct {
	SectionKey string `json:"sectionKey" binding:"required"`
}

type offlineRequest struct {
	Offline bool `json:"offline"`
}

type manualRequest struct {
	Data domain.SectionData `json:"data" binding:"required"`
}

// turnPayload result 事件的内容
type turnPayload struct {
	Result   chat.TurnResult  `json:"result"`
	Proposal *domain.Proposal `json:"proposal"`
}

func (h *SessionHandler) session(c *gin.Context) (*chat.Session, bool) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) State(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// Start 写入开场白并开始第一轮
func (h *SessionHandler) Start(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	stream := newTurnStream(c)
	result, err := s.Start(c.Request.Context(), stream.sink())
	h.finishTurn(c, stream, s, result, err)
}

// SendMessage 发送用户消息，以 SSE 返回增量文本
func (h *SessionHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	stream := newTurnStream(c)
	result, err := s.Send(c.Request.Context(), req.Message, stream.sink())
	h.finishTurn(c, stream, s, result, err)
}

// Confirm 确认章节；若安排了下一章节的开场，同一个响应里以 SSE 返回
func (h *SessionHandler) Confirm(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := domain.ParseSectionKey(req.SectionKey)
	if err != nil {
		respondError(c, err)
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	confirmed, err := s.Confirm(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	if !confirmed.NextPending {
		c.JSON(http.StatusOK, gin.H{"confirm": confirmed, "proposal": s.Snapshot()})
		return
	}

	stream := newTurnStream(c)
	stream.event("confirm", confirmed)
	result, _, err := s.RunPending(c.Request.Context(), stream.sink())
	h.finishTurn(c, stream, s, result, err)
}

func (h *SessionHandler) Jump(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := domain.ParseSectionKey(req.SectionKey)
	if err != nil {
		respondError(c, err)
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Jump(key); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

func (h *SessionHandler) SetOffline(c *gin.Context) {
	var req offlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.SetOffline(req.Offline)
	c.JSON(http.StatusOK, s.State())
}

func (h *SessionHandler) ManualForm(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	form, err := s.ManualForm()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// SubmitManual 提交手动录入；AI 失败后的提交会继续下一章节，此时以 SSE 返回
func (h *SessionHandler) SubmitManual(c *gin.Context) {
	var req manualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	stream := newTurnStream(c)
	result, err := s.SubmitManual(c.Request.Context(), req.Data, stream.sink())
	if !stream.started() {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"manual": result, "proposal": s.Snapshot()})
		return
	}

	stream.event("manual", result)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	} else if result.Next != nil {
		stream.event("result", turnPayload{Result: *result.Next, Proposal: s.Snapshot()})
		errMsg = result.Next.Error
	}
	stream.finish(errMsg)
}

// Reload 从存储重新加载并回放会话记录
func (h *SessionHandler) Reload(c *gin.Context) {
	s, applied, err := h.sessions.Reload(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied, "state": s.State()})
}

// finishTurn 收尾一轮对话：未开始流式输出时按 JSON 返回，否则追加 result 事件
func (h *SessionHandler) finishTurn(c *gin.Context, stream *turnStream, s *chat.Session, result chat.TurnResult, err error) {
	if !stream.started() {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, turnPayload{Result: result, Proposal: s.Snapshot()})
		return
	}
	if err != nil {
		stream.finish(err.Error())
		return
	}
	stream.event("result", turnPayload{Result: result, Proposal: s.Snapshot()})
	stream.finish(result.Error)
}
