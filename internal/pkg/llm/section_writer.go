package llm

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"k8s.io/klog/v2"
)

// SectionWriter 按章节生成提案内容，实现 chat.Collaborator
type SectionWriter struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
	company  string
}

// NewSectionWriter 创建章节写作器
func NewSectionWriter(cm model.BaseChatModel, company string) *SectionWriter {
	if company == "" {
		company = domain.CompanyName
	}
	return &SectionWriter{
		model:    cm,
		template: newChatTemplate(),
		company:  company,
	}
}

var _ chat.Collaborator = (*SectionWriter)(nil)

// Messages 构造发给模型的消息：系统提示、章节历史、用户消息
func (w *SectionWriter) Messages(ctx context.Context, req chat.TurnRequest) ([]*schema.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	vars, err := promptVariables(w.company, req)
	if err != nil {
		return nil, err
	}
	return w.template.Format(ctx, vars)
}

// Stream 流式生成一轮回复
func (w *SectionWriter) Stream(ctx context.Context, req chat.TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	msgs, err := w.Messages(ctx, req)
	if err != nil {
		return nil, err
	}
	klog.V(6).Infof("[SectionWriter] Stream 开始: section=%s, messages=%d", req.SectionKey, len(msgs))

	sr, err := w.model.Stream(ctx, msgs)
	if err != nil {
		klog.Errorf("[SectionWriter] Stream 失败: section=%s, error=%v", req.SectionKey, err)
		return nil, &domain.AICollaboratorError{Op: "stream", Err: err}
	}
	return sr, nil
}

// Generate 非流式生成，用于服务端预生成章节内容
func (w *SectionWriter) Generate(ctx context.Context, req chat.TurnRequest) (string, error) {
	msgs, err := w.Messages(ctx, req)
	if err != nil {
		return "", err
	}
	klog.V(6).Infof("[SectionWriter] Generate 开始: section=%s, messages=%d", req.SectionKey, len(msgs))

	resp, err := w.model.Generate(ctx, msgs)
	if err != nil {
		klog.Errorf("[SectionWriter] Generate 失败: section=%s, error=%v", req.SectionKey, err)
		return "", &domain.AICollaboratorError{Op: "generate", Err: err}
	}
	if resp == nil {
		return "", nil
	}
	klog.V(6).Infof("[SectionWriter] Generate 完成: section=%s, length=%d", req.SectionKey, len(resp.Content))
	return resp.Content, nil
}
