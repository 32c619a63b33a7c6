package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"k8s.io/klog/v2"
)

// ErrMissingAPIKey 未配置 API Key
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// NewChatModel 创建 OpenAI 兼容的 ChatModel
// 任何 OpenAI 兼容的服务（例如 Groq）都可以通过 api_url 接入
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	klog.V(6).Infof("[LLM] 创建 ChatModel: model=%s, baseURL=%s", cfg.Model, cfg.APIURL)

	mc := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.APIURL != "" {
		mc.BaseURL = cfg.APIURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		mc.Temperature = &temperature
	}

	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		klog.Errorf("[LLM] 创建 ChatModel 失败: %v", err)
		return nil, err
	}
	return cm, nil
}

// Unavailable 未配置模型时的协作方，每轮都返回同一个错误，会话据此转入手动录入
type Unavailable struct {
	Err error
}

func (u Unavailable) Stream(ctx context.Context, req chat.TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	return nil, &domain.AICollaboratorError{Op: "stream", Err: u.Err}
}
