package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/layout"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render/html"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render/pdf"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/gin-gonic/gin"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// proposalGetter 读取已保存的提案
type proposalGetter interface {
	Get(ctx context.Context, id string) (*domain.Proposal, error)
}

// RenderHandler 预览、PDF 和纯文本导出
type RenderHandler struct {
	cfg      *config.Config
	store    proposalGetter
	sessions *chat.Manager
}

func NewRenderHandler(cfg *config.Config, store proposalGetter, sessions *chat.Manager) *RenderHandler {
	return &RenderHandler{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
	}
}

type renderRequest struct {
	Content string         `json:"content"`
	Options layout.Options `json:"options"`
}

// Layout 把一段 markdown 解析成布局节点
func (h *RenderHandler) Layout(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Options.AccentColor == "" {
		req.Options.AccentColor = h.cfg.Proposal.AccentColor
	}
	c.JSON(http.StatusOK, gin.H{"nodes": layout.Render(req.Content, req.Options)})
}

func (h *RenderHandler) Preview(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *RenderHandler) PDF(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := pdf.Render(&buf, doc); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename(doc, "pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *RenderHandler) ExportText(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename(doc, "txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc.PlainText()))
}

// Document 返回组装好的文档节点，前端自行绘制
func (h *RenderHandler) Document(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// document 会话已加载时用内存中的最新状态，自动保存可能还没落盘
func (h *RenderHandler) document(c *gin.Context) (render.Document, bool) {
	id := c.Param("id")
	var p *domain.Proposal
	if s, ok := h.sessions.Lookup(id); ok {
		p = s.Snapshot()
	} else {
		stored, err := h.store.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return render.Document{}, false
		}
		p = stored
	}

	doc := render.Compose(p, layout.Options{AccentColor: h.cfg.Proposal.AccentColor})
	if name := h.cfg.Proposal.CompanyName; name != "" {
		doc.Company = name
	}
	doc.Watermark = h.cfg.Proposal.Watermark
	return doc, true
}

// filename 例如 Acme-Logistics-proposal-v2.pdf
func filename(doc render.Document, ext string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(doc.Cover.ClientName, "-"), "-")
	if base == "" {
		base = "client"
	}
	return fmt.Sprintf("%s-proposal-v%d.%s", base, max(doc.Version, 1), ext)
}
